// Package dispatch maps match variants to display-ready summaries and
// detail-view shapes.
package dispatch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"codesurf/internal/domain"
)

// Icon is a presentation-neutral icon hint; the UI decides what glyph or
// image each hint maps to.
type Icon string

const (
	IconRepo         Icon = "repo"
	IconRepoFork     Icon = "repo-fork"
	IconRepoArchived Icon = "repo-archived"
	IconRepoPrivate  Icon = "repo-private"
	IconCommit       Icon = "commit"
	IconFile         Icon = "file"
	IconText         Icon = "text"
	IconSymbol       Icon = "symbol"
)

// Summary is the display-ready digest of one match.
type Summary struct {
	Title     string
	Subtitle  string
	Icon      Icon
	Accessory string
}

// contentSeparator joins the matching lines of a content match into a
// single title.
const contentSeparator = " ... "

// Summarize digests a match into list-row presentation data. It is total
// over the match union; an unhandled variant is a programming error.
func Summarize(m domain.Match) Summary {
	switch m := m.(type) {
	case domain.RepoMatch:
		return Summary{
			Title:     m.Repository,
			Subtitle:  m.Description,
			Icon:      repoIcon(m),
			Accessory: repoAccessory(m),
		}
	case domain.CommitMatch:
		// AuthorDate stays raw here; formatting belongs to the detail view.
		return Summary{
			Title:    m.Message,
			Subtitle: m.AuthorDate,
			Icon:     IconCommit,
		}
	case domain.PathMatch:
		return Summary{
			Title: m.Path,
			Icon:  IconFile,
		}
	case domain.ContentMatch:
		lines := make([]string, len(m.LineMatches))
		for i, lm := range m.LineMatches {
			lines[i] = strings.TrimSpace(lm.Line)
		}
		return Summary{
			Title:    strings.Join(lines, contentSeparator),
			Subtitle: m.Path,
			Icon:     IconText,
		}
	case domain.SymbolMatch:
		names := make([]string, len(m.Symbols))
		for i, sym := range m.Symbols {
			names[i] = sym.Name
		}
		return Summary{
			Title:    strings.Join(names, ", "),
			Subtitle: m.Path,
			Icon:     IconSymbol,
		}
	}
	panic(fmt.Sprintf("dispatch: unhandled match variant %T", m))
}

// repoIcon picks the repo icon facet. Archived takes precedence over fork
// when both are set.
func repoIcon(m domain.RepoMatch) Icon {
	switch {
	case m.IsArchived:
		return IconRepoArchived
	case m.IsFork:
		return IconRepoFork
	case m.IsPrivate:
		return IconRepoPrivate
	default:
		return IconRepo
	}
}

func repoAccessory(m domain.RepoMatch) string {
	if m.Stars > 0 {
		return strconv.Itoa(m.Stars)
	}
	return ""
}

// DetailKind names the two detail-presentation shapes a match can require.
type DetailKind int

const (
	// KindMarkdown renders the match as a single document.
	KindMarkdown DetailKind = iota
	// KindMulti renders the match as a list of independently actionable
	// sub-items with their own URLs.
	KindMulti
)

// DetailKindOf decides the detail-view shape for a match. Content and symbol
// matches carry an internal list of sub-hits that each deserve their own
// action target; every other variant is a single entity.
func DetailKindOf(m domain.Match) DetailKind {
	switch m.(type) {
	case domain.ContentMatch, domain.SymbolMatch:
		return KindMulti
	case domain.RepoMatch, domain.CommitMatch, domain.PathMatch:
		return KindMarkdown
	}
	panic(fmt.Sprintf("dispatch: unhandled match variant %T", m))
}

// SubItem is one row of a Multi detail view.
type SubItem struct {
	Title    string
	Subtitle string
	URL      string
}

// SubItems expands a Multi-kind result into its sub-items. Content lines
// derive their URLs from the parent result URL with a line anchor; symbols
// carry their own pre-resolved URLs. Non-Multi matches have no sub-items.
func SubItems(result domain.SearchResult) ([]SubItem, error) {
	switch m := result.Match.(type) {
	case domain.ContentMatch:
		items := make([]SubItem, 0, len(m.LineMatches))
		for _, lm := range m.LineMatches {
			u, err := lineAnchorURL(result.URL, lm.LineNumber)
			if err != nil {
				return nil, fmt.Errorf("derive line URL: %w", err)
			}
			items = append(items, SubItem{
				Title:    strings.TrimSpace(lm.Line),
				Subtitle: "line " + strconv.Itoa(lm.LineNumber),
				URL:      u,
			})
		}
		return items, nil
	case domain.SymbolMatch:
		items := make([]SubItem, 0, len(m.Symbols))
		for _, sym := range m.Symbols {
			items = append(items, SubItem{
				Title:    sym.Name,
				Subtitle: sym.ContainerName,
				URL:      sym.URL,
			})
		}
		return items, nil
	}
	return nil, nil
}

// lineAnchorURL injects a line-number anchor parameter into a result URL.
// The backend's viewer only highlights the line when the anchor parameter
// sorts first among query parameters, so it is emitted ahead of the
// remaining (sorted) parameters instead of going through Values.Encode
// alone.
func lineAnchorURL(parent string, lineNumber int) (string, error) {
	u, err := url.Parse(parent)
	if err != nil {
		return "", err
	}
	anchor := "L" + strconv.Itoa(lineNumber)
	rawQuery := anchor
	if rest := u.Query().Encode(); rest != "" {
		rawQuery += "&" + rest
	}
	u.RawQuery = rawQuery
	return u.String(), nil
}
