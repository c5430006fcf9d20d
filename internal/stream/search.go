package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"codesurf/internal/domain"
	"codesurf/internal/session"
)

// maxEventSize bounds a single SSE line; large content matches can carry
// many line fragments in one data payload.
const maxEventSize = 8 * 1024 * 1024

// Search implements session.Transport against the backend's streaming
// search endpoint. It blocks until the stream ends, the backend sends a
// done event, or ctx is cancelled, delivering typed events through cb as
// they arrive.
func (c *Client) Search(ctx context.Context, queryText string, pattern domain.PatternType, cb session.Callbacks) error {
	q := url.Values{}
	q.Set("q", queryText)
	q.Set("t", string(pattern))
	q.Set("display", "1500")
	endpoint := c.baseURL + "/.api/search/stream?" + q.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return fmt.Errorf("stream: build search request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Surface cancellation as such so the session can stay silent.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: search request: unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var eventName string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventName != "" {
				if done := c.dispatchEvent(eventName, data.String(), cb); done {
					return nil
				}
			}
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream: read search stream: %w", err)
	}
	// Stream ended without a done event; treat a clean EOF as completion.
	return nil
}

// dispatchEvent decodes one SSE event and hands it to the callbacks.
// Returns true for the terminal done event. Undecodable payloads are
// logged and skipped rather than killing the stream.
func (c *Client) dispatchEvent(name, payload string, cb session.Callbacks) bool {
	switch name {
	case "matches":
		var wire []wireMatch
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			c.logger.Warn("skipping undecodable matches event", zap.Error(err))
			return false
		}
		batch := make([]domain.SearchResult, 0, len(wire))
		for _, m := range wire {
			match, ok := m.toDomain(c.baseURL)
			if !ok {
				c.logger.Warn("skipping unknown match type", zap.String("type", m.Type))
				continue
			}
			batch = append(batch, domain.SearchResult{
				URL:   c.resultURL(m),
				Match: match,
			})
		}
		if len(batch) > 0 && cb.OnResults != nil {
			cb.OnResults(batch)
		}
	case "filters":
		var wire []wireFilter
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			c.logger.Warn("skipping undecodable filters event", zap.Error(err))
			return false
		}
		batch := make([]domain.Suggestion, 0, len(wire))
		for _, f := range wire {
			batch = append(batch, domain.Suggestion{
				Title:       f.Label,
				Description: fmt.Sprintf("%d matches", f.Count),
				Query:       f.Value,
			})
		}
		if len(batch) > 0 && cb.OnSuggestions != nil {
			cb.OnSuggestions(batch, false)
		}
	case "alert":
		var wire wireAlert
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			c.logger.Warn("skipping undecodable alert event", zap.Error(err))
			return false
		}
		if cb.OnAlert != nil {
			cb.OnAlert(domain.Alert{Title: wire.Title, Description: wire.Description})
		}
		// Proposed corrections outrank backend filter suggestions.
		if len(wire.ProposedQueries) > 0 && cb.OnSuggestions != nil {
			batch := make([]domain.Suggestion, 0, len(wire.ProposedQueries))
			for _, pq := range wire.ProposedQueries {
				batch = append(batch, domain.Suggestion{
					Title: pq.Description,
					Query: pq.Query,
				})
			}
			cb.OnSuggestions(batch, true)
		}
	case "progress":
		var wire wireProgress
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			c.logger.Warn("skipping undecodable progress event", zap.Error(err))
			return false
		}
		if cb.OnProgress != nil {
			cb.OnProgress(domain.Progress{
				MatchCount: wire.MatchCount,
				DurationMs: wire.DurationMs,
			})
		}
	case "done":
		return true
	}
	return false
}

// wireMatch is the backend's tagged match record before conversion to the
// domain union.
type wireMatch struct {
	Type       string `json:"type"`
	Repository string `json:"repository"`

	// repo
	Description string `json:"description"`
	RepoStars   int    `json:"repoStars"`
	Fork        bool   `json:"fork"`
	Archived    bool   `json:"archived"`
	Private     bool   `json:"private"`

	// commit
	Message    string `json:"message"`
	AuthorName string `json:"authorName"`
	AuthorDate string `json:"authorDate"`
	OID        string `json:"oid"`

	// path / content / symbol
	Path        string          `json:"path"`
	Commit      string          `json:"commit"`
	LineMatches []wireLineMatch `json:"lineMatches"`
	Symbols     []wireSymbol    `json:"symbols"`
}

type wireLineMatch struct {
	Line       string `json:"line"`
	LineNumber int    `json:"lineNumber"`
}

type wireSymbol struct {
	Name          string `json:"name"`
	ContainerName string `json:"containerName"`
	Kind          string `json:"kind"`
	URL           string `json:"url"`
}

type wireFilter struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Kind  string `json:"kind"`
}

type wireAlert struct {
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	ProposedQueries []wireProposedQuery `json:"proposedQueries"`
}

type wireProposedQuery struct {
	Description string `json:"description"`
	Query       string `json:"query"`
}

type wireProgress struct {
	MatchCount int     `json:"matchCount"`
	DurationMs float64 `json:"durationMs"`
}

func (m wireMatch) toDomain(baseURL string) (domain.Match, bool) {
	switch m.Type {
	case "repo":
		return domain.RepoMatch{
			Repository:  m.Repository,
			Description: m.Description,
			Stars:       m.RepoStars,
			IsFork:      m.Fork,
			IsArchived:  m.Archived,
			IsPrivate:   m.Private,
		}, true
	case "commit":
		return domain.CommitMatch{
			Repository: m.Repository,
			Message:    m.Message,
			AuthorName: m.AuthorName,
			AuthorDate: m.AuthorDate,
			OID:        m.OID,
		}, true
	case "path":
		return domain.PathMatch{
			Repository: m.Repository,
			Path:       m.Path,
			Commit:     m.Commit,
		}, true
	case "content":
		lines := make([]domain.LineMatch, len(m.LineMatches))
		for i, lm := range m.LineMatches {
			lines[i] = domain.LineMatch{Line: lm.Line, LineNumber: lm.LineNumber}
		}
		return domain.ContentMatch{
			Repository:  m.Repository,
			Path:        m.Path,
			LineMatches: lines,
		}, true
	case "symbol":
		syms := make([]domain.SymbolOccurrence, len(m.Symbols))
		for i, s := range m.Symbols {
			syms[i] = domain.SymbolOccurrence{
				Name:          s.Name,
				ContainerName: s.ContainerName,
				Kind:          s.Kind,
				URL:           absoluteURL(baseURL, s.URL),
			}
		}
		return domain.SymbolMatch{
			Repository: m.Repository,
			Path:       m.Path,
			Symbols:    syms,
		}, true
	}
	return nil, false
}

// absoluteURL resolves the backend's root-relative URLs against the
// instance base.
func absoluteURL(baseURL, u string) string {
	if strings.HasPrefix(u, "/") {
		return baseURL + u
	}
	return u
}

// resultURL derives the canonical web URL for a match.
func (c *Client) resultURL(m wireMatch) string {
	switch m.Type {
	case "repo":
		return c.baseURL + "/" + m.Repository
	case "commit":
		return c.baseURL + "/" + m.Repository + "/-/commit/" + m.OID
	case "path", "content":
		spec := m.Repository
		if m.Commit != "" {
			spec += "@" + m.Commit
		}
		return c.baseURL + "/" + spec + "/-/blob/" + m.Path
	case "symbol":
		return c.baseURL + "/" + m.Repository + "/-/blob/" + m.Path
	}
	return c.baseURL
}
