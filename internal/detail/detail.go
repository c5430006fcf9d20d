// Package detail lazily fetches supplementary content for detail views and
// renders it as a bounded markdown preview.
package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"codesurf/internal/domain"
	"codesurf/internal/stream"
)

// maxRenderableBytes bounds inline previews; anything larger gets a notice
// instead of content.
const maxRenderableBytes = 50 * 1024

// Fetcher is the file-contents capability the resolver consumes.
type Fetcher interface {
	FetchFileContents(ctx context.Context, repo, revision, path string) (*stream.FileContents, error)
}

// Resolver fetches content once per displayed item and renders it. The memo
// lives for the resolver's lifetime; a resolver is scoped to one displayed
// session, never shared across sessions.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu       sync.Mutex
	memo     map[string]string
	inflight map[string]chan struct{}
}

// NewResolver creates a resolver over the given fetch capability.
func NewResolver(fetcher Fetcher, logger *zap.Logger) *Resolver {
	return &Resolver{
		fetcher:  fetcher,
		logger:   logger,
		memo:     make(map[string]string),
		inflight: make(map[string]chan struct{}),
	}
}

// FetchOnce resolves the rendered preview for a file, fetching it at most
// once per resolver. Fetch failures render inline rather than propagating:
// a broken preview must not block the rest of the detail view.
func (r *Resolver) FetchOnce(ctx context.Context, repo, revision, path string) string {
	key := repo + "@" + revision + "/" + path

	for {
		r.mu.Lock()
		if doc, ok := r.memo[key]; ok {
			r.mu.Unlock()
			return doc
		}
		// A concurrent open of the same item waits for the first fetch
		// instead of issuing its own.
		if done, ok := r.inflight[key]; ok {
			r.mu.Unlock()
			<-done
			continue
		}
		done := make(chan struct{})
		r.inflight[key] = done
		r.mu.Unlock()

		doc := r.resolve(ctx, repo, revision, path)

		r.mu.Lock()
		r.memo[key] = doc
		delete(r.inflight, key)
		r.mu.Unlock()
		close(done)
		return doc
	}
}

func (r *Resolver) resolve(ctx context.Context, repo, revision, path string) string {
	fc, err := r.fetcher.FetchFileContents(ctx, repo, revision, path)
	switch {
	case errors.Is(err, stream.ErrNotFound):
		return "*File not found.*"
	case err != nil:
		r.logger.Warn("content fetch failed",
			zap.String("repo", repo),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Sprintf("*Could not load content: %v*", err)
	}
	return Render(fc)
}

// DocumentFor produces the markdown document for a Markdown-kind match.
// Multi-kind matches carry sub-items instead of a document and yield "".
func (r *Resolver) DocumentFor(ctx context.Context, m domain.Match) string {
	switch m := m.(type) {
	case domain.RepoMatch:
		return r.FetchOnce(ctx, m.Repository, "", "README.md")
	case domain.PathMatch:
		return r.FetchOnce(ctx, m.Repository, m.Commit, m.Path)
	case domain.CommitMatch:
		return commitDocument(m)
	case domain.ContentMatch, domain.SymbolMatch:
		return ""
	}
	panic(fmt.Sprintf("detail: unhandled match variant %T", m))
}

// Render applies the preview policy to fetched contents: binary is never
// rendered, oversized content is replaced by a notice carrying the measured
// size, markdown passes through as-is, and everything else is wrapped in a
// code block.
func Render(fc *stream.FileContents) string {
	switch {
	case fc.Binary:
		return "*Binary file not rendered.*"
	case fc.ByteSize > maxRenderableBytes:
		return fmt.Sprintf("*File too large to render (%d KB).*", fc.ByteSize/1024)
	case isMarkdownPath(fc.Path):
		return string(fc.Content)
	default:
		return "```\n" + strings.TrimRight(string(fc.Content), "\n") + "\n```"
	}
}

func isMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// commitDocument renders a commit match as a document. Date formatting
// happens here, at the detail layer, never in list summaries.
func commitDocument(m domain.CommitMatch) string {
	date := m.AuthorDate
	if t, err := time.Parse(time.RFC3339, m.AuthorDate); err == nil {
		date = t.Format("Jan 2, 2006 15:04")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Message)
	fmt.Fprintf(&b, "**%s** on %s\n\n", m.AuthorName, date)
	fmt.Fprintf(&b, "`%s` in %s\n", m.OID, m.Repository)
	return b.String()
}
