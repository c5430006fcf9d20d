package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codesurf/internal/domain"
	"codesurf/internal/eventbus"
)

// searchCall captures one transport invocation so tests can drive its
// callbacks and completion by hand.
type searchCall struct {
	ctx     context.Context
	text    string
	pattern domain.PatternType
	cb      Callbacks
	done    chan error
}

func (c *searchCall) finish(err error) { c.done <- err }

// fakeTransport records calls and blocks each one until the test finishes
// it (or its context is cancelled).
type fakeTransport struct {
	mu    sync.Mutex
	calls []*searchCall
}

func (f *fakeTransport) Search(ctx context.Context, text string, pattern domain.PatternType, cb Callbacks) error {
	c := &searchCall{ctx: ctx, text: text, pattern: pattern, cb: cb, done: make(chan error, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTransport) call(t *testing.T, i int) *searchCall {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) > i
	}, time.Second, time.Millisecond, "transport call %d never arrived", i)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeTransport, eventbus.EventBus) {
	t.Helper()
	transport := &fakeTransport{}
	bus := eventbus.New(zap.NewNop())
	s := New(transport, bus, zap.NewNop(), opts...)
	t.Cleanup(s.Close)
	return s, transport, bus
}

func results(urls ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(urls))
	for i, u := range urls {
		out[i] = domain.SearchResult{URL: u, Match: domain.PathMatch{Path: u}}
	}
	return out
}

func urls(rs []domain.SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.URL
	}
	return out
}

func TestSearchAccumulatesBatchesInArrivalOrder(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)

	call.cb.OnResults(results("u1", "u2"))
	call.cb.OnResults(results("u3", "u1")) // duplicate URL stays
	call.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"u1", "u2", "u3", "u1"}, urls(snap.Results))
}

func TestSearchResetsStatePerInvocation(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)
	call.cb.OnResults(results("old"))
	call.cb.OnProgress(domain.Progress{MatchCount: 1, DurationMs: 5})
	call.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	s.Search("bar", domain.PatternLiteral)
	snap := s.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.Suggestions)
	assert.Empty(t, snap.Summary)
	assert.True(t, snap.IsLoading)
}

func TestStaleGenerationNeverMutatesState(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	first := transport.call(t, 0)

	// Supersede before the first stream delivered anything.
	s.Search("bar", domain.PatternRegexp)
	second := transport.call(t, 1)
	assert.Equal(t, "bar", second.text)
	assert.Equal(t, domain.PatternRegexp, second.pattern)

	second.cb.OnResults(results("bar-1"))
	// Late delivery from the superseded generation.
	first.cb.OnResults(results("foo-1", "foo-2"))
	first.cb.OnProgress(domain.Progress{MatchCount: 2, DurationMs: 10})
	second.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"bar-1"}, urls(snap.Results))
	assert.NotContains(t, urls(snap.Results), "foo-1")
	assert.Empty(t, snap.Summary, "stale progress must not write the summary")
}

func TestSupersededGenerationIsCancelled(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	first := transport.call(t, 0)

	s.Search("bar", domain.PatternLiteral)

	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("previous generation's context was not cancelled")
	}
}

func TestSupersededFailureIsSilent(t *testing.T) {
	s, transport, bus := newTestSession(t)

	failed := make(chan eventbus.SearchFailedEvent, 1)
	bus.Subscribe(eventbus.EventSearchFailed, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SearchFailedEvent); ok {
			failed <- ev
		}
	})

	s.Search("foo", domain.PatternLiteral)
	transport.call(t, 0)
	s.Search("bar", domain.PatternLiteral)
	second := transport.call(t, 1)

	// The first call returns context.Canceled on its own once superseded.
	second.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	select {
	case ev := <-failed:
		t.Fatalf("superseded generation surfaced an error: %v", ev.Err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSuggestionsPushToTopOrdering(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)

	call.cb.OnSuggestions([]domain.Suggestion{{Title: "low-1"}, {Title: "low-2"}}, false)
	call.cb.OnSuggestions([]domain.Suggestion{{Title: "top-1"}, {Title: "top-2"}}, true)
	call.cb.OnSuggestions([]domain.Suggestion{{Title: "low-3"}}, false)
	call.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	var titles []string
	for _, sug := range s.Snapshot().Suggestions {
		titles = append(titles, sug.Title)
	}
	assert.Equal(t, []string{"top-1", "top-2", "low-1", "low-2", "low-3"}, titles)
}

func TestProgressLastWriteWins(t *testing.T) {
	s, transport, _ := newTestSession(t)

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)

	call.cb.OnProgress(domain.Progress{MatchCount: 10, DurationMs: 20})
	call.cb.OnProgress(domain.Progress{MatchCount: 250, DurationMs: 95})
	call.finish(nil)

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	assert.Equal(t, "250 results in 95ms", s.Snapshot().Summary)
}

func TestFailureKeepsPartialResults(t *testing.T) {
	s, transport, bus := newTestSession(t)

	failed := make(chan eventbus.SearchFailedEvent, 1)
	bus.Subscribe(eventbus.EventSearchFailed, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SearchFailedEvent); ok {
			failed <- ev
		}
	})

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)
	call.cb.OnResults(results("kept-1", "kept-2"))
	call.finish(errors.New("stream aborted"))

	select {
	case ev := <-failed:
		assert.EqualError(t, ev.Err, "stream aborted")
	case <-time.After(time.Second):
		t.Fatal("no failure event published")
	}

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsLoading
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"kept-1", "kept-2"}, urls(s.Snapshot().Results))
}

func TestAlertDoesNotMutateState(t *testing.T) {
	s, transport, bus := newTestSession(t)

	alerts := make(chan eventbus.AlertRaisedEvent, 1)
	bus.Subscribe(eventbus.EventAlertRaised, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.AlertRaisedEvent); ok {
			alerts <- ev
		}
	})

	s.Search("foo", domain.PatternLiteral)
	call := transport.call(t, 0)
	call.cb.OnAlert(domain.Alert{Title: "query timed out", Description: "try narrowing"})

	select {
	case ev := <-alerts:
		assert.Equal(t, "query timed out", ev.Alert.Title)
	case <-time.After(time.Second):
		t.Fatal("no alert event published")
	}

	snap := s.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.Suggestions)

	call.finish(nil)
}

func TestQueryPrefixFixedAtConstruction(t *testing.T) {
	s, transport, _ := newTestSession(t, WithQueryPrefix("context:global"))

	s.Search("foo", domain.PatternLiteral)
	assert.Equal(t, "context:global foo", transport.call(t, 0).text)

	s.Search("", domain.PatternLiteral)
	assert.Equal(t, "context:global", transport.call(t, 1).text)
}

func TestFormatSummarySingular(t *testing.T) {
	assert.Equal(t, "1 result in 12ms", formatSummary(domain.Progress{MatchCount: 1, DurationMs: 12.4}))
}
