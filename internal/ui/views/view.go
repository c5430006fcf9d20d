package views

import (
	"fmt"
	"strings"

	"codesurf/internal/dispatch"
	"codesurf/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	QueryView   string
	Pattern     domain.PatternType
	SpinnerView string

	Results     []domain.SearchResult
	Suggestions []domain.Suggestion
	Summary     string
	IsLoading   bool

	Selected int
	Offset   int

	Notice        string
	NoticeIsError bool

	ShowSuggestions bool

	ShowDetail     bool
	DetailTitle    string
	DetailDocView  string
	DetailItems    []dispatch.SubItem
	DetailSelected int
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// iconGlyphs maps dispatcher icon hints to list glyphs.
var iconGlyphs = map[dispatch.Icon]string{
	dispatch.IconRepo:         "●",
	dispatch.IconRepoFork:     "◐",
	dispatch.IconRepoArchived: "◌",
	dispatch.IconRepoPrivate:  "◆",
	dispatch.IconCommit:       "◉",
	dispatch.IconFile:         "▤",
	dispatch.IconText:         "≡",
	dispatch.IconSymbol:       "λ",
}

// Render renders the complete view
func (r *Renderer) Render(vs ViewState) string {
	var b strings.Builder

	b.WriteString(r.renderHeader(vs))
	b.WriteString("\n")
	b.WriteString(r.renderStatus(vs))
	b.WriteString("\n")

	if vs.ShowDetail {
		b.WriteString(r.renderDetail(vs))
	} else {
		b.WriteString(r.renderResults(vs))
		if vs.ShowSuggestions && len(vs.Suggestions) > 0 {
			b.WriteString("\n")
			b.WriteString(r.renderSuggestions(vs))
		}
	}

	if vs.Notice != "" {
		b.WriteString("\n")
		style := r.styles.NoticeWarn
		if vs.NoticeIsError {
			style = r.styles.NoticeError
		}
		b.WriteString(style.Render(truncate(vs.Notice, vs.Width)))
	}

	b.WriteString("\n")
	b.WriteString(r.renderHelp(vs))
	return b.String()
}

func (r *Renderer) renderHeader(vs ViewState) string {
	title := r.styles.Title.Render("codesurf")
	pattern := r.styles.Pattern.Render("[" + string(vs.Pattern) + "]")
	return fmt.Sprintf("%s %s %s", title, vs.QueryView, pattern)
}

func (r *Renderer) renderStatus(vs ViewState) string {
	if vs.IsLoading {
		return vs.SpinnerView + " " + r.styles.Summary.Render("searching…")
	}
	if vs.Summary != "" {
		return r.styles.Summary.Render(vs.Summary)
	}
	return r.styles.Dim.Render("type to search")
}

// listHeight returns the rows available for the result list.
func (vs ViewState) listHeight() int {
	// header + status + suggestions + notice + help
	h := vs.Height - 5
	if h < 1 {
		h = 1
	}
	return h
}

func (r *Renderer) renderResults(vs ViewState) string {
	if len(vs.Results) == 0 {
		return r.styles.Dim.Render("  no results")
	}

	height := vs.listHeight()
	end := vs.Offset + height
	if end > len(vs.Results) {
		end = len(vs.Results)
	}

	var rows []string
	for i := vs.Offset; i < end; i++ {
		rows = append(rows, r.renderRow(vs, i))
	}
	if end < len(vs.Results) {
		rows = append(rows, r.styles.Dim.Render(fmt.Sprintf("  … %d more", len(vs.Results)-end)))
	}
	return strings.Join(rows, "\n")
}

func (r *Renderer) renderRow(vs ViewState, i int) string {
	s := dispatch.Summarize(vs.Results[i].Match)

	glyph := iconGlyphs[s.Icon]
	if glyph == "" {
		glyph = "·"
	}

	line := r.styles.Icon.Render(glyph) + " " + s.Title
	if s.Subtitle != "" {
		line += " " + r.styles.Subtitle.Render("— "+s.Subtitle)
	}
	if s.Accessory != "" {
		line += " " + r.styles.Accessory.Render("★"+s.Accessory)
	}
	line = truncate(line, vs.Width-2)

	if i == vs.Selected {
		return r.styles.SelectedRow.Render("▶ " + line)
	}
	return "  " + line
}

func (r *Renderer) renderSuggestions(vs ViewState) string {
	var parts []string
	for i, sug := range vs.Suggestions {
		if i >= 4 {
			parts = append(parts, r.styles.Dim.Render(fmt.Sprintf("+%d", len(vs.Suggestions)-i)))
			break
		}
		style := r.styles.Suggestion
		if sug.Actionable() {
			style = r.styles.Actionable
		}
		parts = append(parts, fmt.Sprintf("%d:%s", i+1, style.Render(sug.Title)))
	}
	return truncate("  "+strings.Join(parts, "  "), vs.Width)
}

func (r *Renderer) renderDetail(vs ViewState) string {
	var body string
	if len(vs.DetailItems) > 0 {
		var rows []string
		height := vs.listHeight() - 2
		for i, item := range vs.DetailItems {
			if i >= height {
				rows = append(rows, r.styles.Dim.Render(fmt.Sprintf("… %d more", len(vs.DetailItems)-i)))
				break
			}
			line := item.Title
			if item.Subtitle != "" {
				line += " " + r.styles.Subtitle.Render("— "+item.Subtitle)
			}
			line = truncate(line, vs.Width-8)
			if i == vs.DetailSelected {
				line = r.styles.SelectedRow.Render("▶ " + line)
			} else {
				line = "  " + line
			}
			rows = append(rows, line)
		}
		body = strings.Join(rows, "\n")
	} else {
		// Scrolling and clipping are the detail viewport's job.
		body = vs.DetailDocView
	}

	title := r.styles.DetailTitle.Render(truncate(vs.DetailTitle, vs.Width-8))
	return r.styles.DetailBox.Width(vs.Width - 4).Render(title + "\n" + body)
}

func (r *Renderer) renderHelp(vs ViewState) string {
	if vs.ShowDetail {
		return r.styles.Help.Render("esc back · ↑/↓ select · enter copy url · p pager")
	}
	return r.styles.Help.Render("enter open · tab pattern · ctrl+d drill down · alt+1-4 suggestion · ctrl+o url · esc quit")
}

// truncate cuts a string to at most width visible-ish columns. Styled
// strings are cut conservatively by rune count.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
