package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"codesurf/internal/config"
	"codesurf/internal/detail"
	"codesurf/internal/dispatch"
	"codesurf/internal/domain"
	"codesurf/internal/eventbus"
	"codesurf/internal/query"
	"codesurf/internal/session"
	"codesurf/internal/ui/views"
)

const noticeDuration = 5 * time.Second

// Model is the Bubble Tea model driving the search screen.
type Model struct {
	cfg      *config.Config
	session  *session.Session
	resolver *detail.Resolver
	pager    *Pager
	logger   *zap.Logger

	input    textinput.Model
	spinner  spinner.Model
	renderer *views.Renderer

	width  int
	height int

	pattern   domain.PatternType
	snap      session.State
	selected  int
	offset    int
	lastQuery string

	showDetail     bool
	detailResult   domain.SearchResult
	detailDoc      string
	detailView     viewport.Model
	detailItems    []dispatch.SubItem
	detailSelected int

	notice        string
	noticeIsError bool
	noticeSeq     int
}

// NewModel creates the UI model. A non-empty initialQuery is searched as
// soon as the program starts.
func NewModel(cfg *config.Config, sess *session.Session, resolver *detail.Resolver, logger *zap.Logger, initialQuery string) *Model {
	ti := textinput.New()
	ti.Placeholder = "search code, repos, commits…"
	ti.Prompt = "❯ "
	ti.SetValue(initialQuery)
	ti.CursorEnd()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &Model{
		cfg:      cfg,
		session:  sess,
		resolver: resolver,
		pager:    NewPager(),
		logger:   logger,
		input:      ti,
		spinner:    sp,
		renderer:   views.NewRenderer(),
		detailView: viewport.New(0, 0),
		pattern:    cfg.PatternType(),
	}
}

// SetProgram wires the running Bubble Tea program into the pager so it can
// release and restore the terminal.
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	if v := m.input.Value(); v != "" {
		m.search(v)
	}
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sizeDetailView()
		return m, nil

	case EventMsg:
		return m.handleEvent(msg.Event)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case detailDocMsg:
		if m.showDetail && msg.url == m.detailResult.URL {
			m.setDetailDoc(msg.doc)
		}
		return m, nil

	case pagerDoneMsg:
		if msg.err != nil {
			return m, m.setNotice("pager: "+msg.err.Error(), true)
		}
		return m, nil

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.showDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}

	return m, nil
}

func (m *Model) handleEvent(e eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	m.snap = m.session.Snapshot()
	m.clampSelection()

	switch e := e.(type) {
	case eventbus.AlertRaisedEvent:
		text := e.Alert.Title
		if e.Alert.Description != "" {
			text += ": " + e.Alert.Description
		}
		return m, m.setNotice(text, false)
	case eventbus.SearchFailedEvent:
		return m, m.setNotice("search failed: "+e.Err.Error(), true)
	case eventbus.ErrorEvent:
		return m, m.setNotice(e.Message, true)
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.session.Close()
		return m, tea.Quit

	case "up":
		m.moveSelection(-1)
		return m, nil
	case "down":
		m.moveSelection(1)
		return m, nil
	case "pgup":
		m.moveSelection(-m.listHeight())
		return m, nil
	case "pgdown":
		m.moveSelection(m.listHeight())
		return m, nil

	case "enter":
		return m.openDetail()

	case "tab":
		m.pattern = nextPattern(m.pattern)
		m.search(m.input.Value())
		return m, nil

	case "ctrl+d":
		if r, ok := m.selectedResult(); ok {
			clauses := query.DrilldownClauses(drilldownFor(r.Match))
			if clauses != "" {
				m.input.SetValue(clauses + " ")
				m.input.CursorEnd()
				m.search(m.input.Value())
			}
		}
		return m, nil

	case "ctrl+o":
		u, err := query.BrowserURL(m.cfg.Endpoint, m.currentQuery())
		if err != nil {
			return m, m.setNotice("bad endpoint URL: "+err.Error(), true)
		}
		return m, m.setNotice(u, false)

	// Suggestion hotkeys ride on alt so bare digits stay typeable in
	// the query ("base64" must reach the input intact).
	case "alt+1", "alt+2", "alt+3", "alt+4":
		k := msg.String()
		return m.applySuggestion(int(k[len(k)-1] - '1'))
	}

	// Everything else edits the query; any change supersedes the
	// in-flight search.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.lastQuery {
		m.search(v)
	}
	return m, cmd
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.closeDetail()
		return m, nil

	case "up":
		if len(m.detailItems) == 0 {
			m.detailView.LineUp(1)
		} else if m.detailSelected > 0 {
			m.detailSelected--
		}
		return m, nil
	case "down":
		if len(m.detailItems) == 0 {
			m.detailView.LineDown(1)
		} else if m.detailSelected < len(m.detailItems)-1 {
			m.detailSelected++
		}
		return m, nil
	case "pgup":
		m.detailView.LineUp(m.detailView.Height)
		return m, nil
	case "pgdown":
		m.detailView.LineDown(m.detailView.Height)
		return m, nil

	case "enter":
		if len(m.detailItems) > 0 {
			return m, m.setNotice(m.detailItems[m.detailSelected].URL, false)
		}
		return m, m.setNotice(m.detailResult.URL, false)

	case "p":
		if m.detailDoc == "" {
			return m, nil
		}
		title, doc := m.detailTitle(), m.detailDoc
		return m, func() tea.Msg {
			return pagerDoneMsg{err: m.pager.Show(title, doc)}
		}
	}
	return m, nil
}

// openDetail dispatches the selected result to its detail-view kind.
func (m *Model) openDetail() (tea.Model, tea.Cmd) {
	r, ok := m.selectedResult()
	if !ok {
		return m, nil
	}

	m.showDetail = true
	m.detailResult = r
	m.detailSelected = 0
	m.detailDoc = ""
	m.detailItems = nil

	switch dispatch.DetailKindOf(r.Match) {
	case dispatch.KindMulti:
		items, err := dispatch.SubItems(r)
		if err != nil {
			m.closeDetail()
			return m, m.setNotice("cannot expand result: "+err.Error(), true)
		}
		m.detailItems = items
		return m, nil

	case dispatch.KindMarkdown:
		m.setDetailDoc("loading…")
		match, url := r.Match, r.URL
		return m, func() tea.Msg {
			return detailDocMsg{
				url: url,
				doc: m.resolver.DocumentFor(context.Background(), match),
			}
		}
	}
	return m, nil
}

func (m *Model) closeDetail() {
	m.showDetail = false
	m.detailDoc = ""
	m.detailView.SetContent("")
	m.detailItems = nil
	m.detailSelected = 0
}

// setDetailDoc replaces the markdown detail document and rewinds the
// scroll position.
func (m *Model) setDetailDoc(doc string) {
	m.detailDoc = doc
	m.sizeDetailView()
	m.detailView.SetContent(doc)
	m.detailView.GotoTop()
}

func (m *Model) sizeDetailView() {
	w := m.width - 8
	if w < 1 {
		w = 1
	}
	h := m.listHeight() - 2
	if h < 1 {
		h = 1
	}
	m.detailView.Width = w
	m.detailView.Height = h
}

func (m *Model) applySuggestion(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.snap.Suggestions) {
		return m, nil
	}
	sug := m.snap.Suggestions[i]
	if sug.Actionable() {
		m.input.SetValue(appendQuery(m.input.Value(), sug.Query))
		m.input.CursorEnd()
		m.search(m.input.Value())
		return m, nil
	}
	// Informational suggestion: open an explanatory document instead.
	m.showDetail = true
	m.detailResult = domain.SearchResult{}
	m.detailItems = nil
	m.setDetailDoc("# " + sug.Title + "\n\n" + sug.Description)
	return m, nil
}

func (m *Model) search(text string) {
	m.lastQuery = text
	m.selected = 0
	m.offset = 0
	m.session.Search(text, m.pattern)
	m.snap = m.session.Snapshot()
}

func (m *Model) currentQuery() string {
	text := m.input.Value()
	if prefix := m.cfg.QueryPrefix(); prefix != "" {
		return strings.TrimSpace(prefix + " " + text)
	}
	return text
}

func (m *Model) selectedResult() (domain.SearchResult, bool) {
	if m.selected < 0 || m.selected >= len(m.snap.Results) {
		return domain.SearchResult{}, false
	}
	return m.snap.Results[m.selected], true
}

func (m *Model) detailTitle() string {
	if m.detailResult.Match == nil {
		return "about this suggestion"
	}
	return dispatch.Summarize(m.detailResult.Match).Title
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snap.Results) {
		m.selected = len(m.snap.Results) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	// Keep the selection inside the visible window.
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) listHeight() int {
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) setNotice(text string, isError bool) tea.Cmd {
	m.notice = text
	m.noticeIsError = isError
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// View implements tea.Model
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:           m.width,
		Height:          m.height,
		QueryView:       m.input.View(),
		Pattern:         m.pattern,
		SpinnerView:     m.spinner.View(),
		Results:         m.snap.Results,
		Suggestions:     m.snap.Suggestions,
		Summary:         m.snap.Summary,
		IsLoading:       m.snap.IsLoading,
		Selected:        m.selected,
		Offset:          m.offset,
		Notice:          m.notice,
		NoticeIsError:   m.noticeIsError,
		ShowSuggestions: m.cfg.UISettings.ShowSuggestions,
		ShowDetail:      m.showDetail,
		DetailTitle:     m.detailTitle(),
		DetailDocView:   m.detailView.View(),
		DetailItems:     m.detailItems,
		DetailSelected:  m.detailSelected,
	})
}

// nextPattern cycles literal → regexp → structural.
func nextPattern(p domain.PatternType) domain.PatternType {
	switch p {
	case domain.PatternLiteral:
		return domain.PatternRegexp
	case domain.PatternRegexp:
		return domain.PatternStructural
	default:
		return domain.PatternLiteral
	}
}

// drilldownFor picks the narrowing clauses a match supports.
func drilldownFor(m domain.Match) query.DrilldownOpts {
	switch m := m.(type) {
	case domain.RepoMatch:
		return query.DrilldownOpts{Repo: m.Repository}
	case domain.CommitMatch:
		return query.DrilldownOpts{Repo: m.Repository}
	case domain.PathMatch:
		return query.DrilldownOpts{Repo: m.Repository, Revision: m.Commit, File: m.Path}
	case domain.ContentMatch:
		return query.DrilldownOpts{Repo: m.Repository, File: m.Path}
	case domain.SymbolMatch:
		return query.DrilldownOpts{Repo: m.Repository, File: m.Path}
	}
	return query.DrilldownOpts{}
}

// appendQuery appends a suggestion's query fragment to the current text.
func appendQuery(current, fragment string) string {
	return strings.TrimSpace(strings.TrimSpace(current) + " " + fragment)
}
