// Package session owns the lifecycle of an incremental search: issuing a
// query, folding streamed events into state, and superseding in-flight work
// when the query changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"codesurf/internal/domain"
	"codesurf/internal/eventbus"
)

// Callbacks delivers typed stream events for one search. The transport may
// invoke them from any goroutine; the session serializes the folds.
type Callbacks struct {
	OnResults     func(batch []domain.SearchResult)
	OnSuggestions func(batch []domain.Suggestion, pushToTop bool)
	OnAlert       func(alert domain.Alert)
	OnProgress    func(progress domain.Progress)
}

// Transport performs one search against the backend, delivering typed
// events through the callbacks until the stream ends. It must stop as soon
// as practical once ctx is cancelled and return ctx.Err().
type Transport interface {
	Search(ctx context.Context, queryText string, pattern domain.PatternType, cb Callbacks) error
}

// State is the accumulated, renderable outcome of the current generation.
// Results and Suggestions are reset exactly once per Search call, before
// any event of that generation is folded in.
type State struct {
	Results     []domain.SearchResult
	Suggestions []domain.Suggestion
	Summary     string // empty until the first progress event
	IsLoading   bool
}

// Session drives searches against a transport. A session is created once
// per caller and lives as long as the caller; every Search call starts a
// new generation and makes the previous one unobservable.
type Session struct {
	transport   Transport
	bus         eventbus.EventBus
	logger      *zap.Logger
	queryPrefix string

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
}

// Option configures a Session at construction.
type Option func(*Session)

// WithQueryPrefix sets a default-context prefix (e.g. "context:global")
// prepended to every query. It is fixed at construction, never per call.
func WithQueryPrefix(prefix string) Option {
	return func(s *Session) { s.queryPrefix = strings.TrimSpace(prefix) }
}

// New creates a session.
func New(transport Transport, bus eventbus.EventBus, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		bus:       bus,
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search supersedes any in-flight search and starts a new generation for
// the given text. It never blocks on I/O; results arrive through Snapshot
// and the event bus.
func (s *Session) Search(text string, pattern domain.PatternType) {
	queryText := text
	if s.queryPrefix != "" {
		queryText = strings.TrimSpace(s.queryPrefix + " " + text)
	}

	s.mu.Lock()
	if s.cancel != nil {
		// Invalidate the previous generation before touching state: once
		// the counter moves, its callbacks are no-ops even if the
		// transport keeps delivering already-enqueued events.
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = State{IsLoading: true}
	s.mu.Unlock()

	s.logger.Debug("search started",
		zap.String("query", queryText),
		zap.String("pattern", string(pattern)),
		zap.Uint64("generation", gen))
	s.bus.Publish(eventbus.SearchStartedEvent{Query: queryText, Pattern: pattern})

	cb := Callbacks{
		OnResults: func(batch []domain.SearchResult) {
			if s.fold(gen, func(st *State) {
				// Arrival order is the display order. No sorting, no
				// dedup: duplicate URLs across batches are tolerated.
				st.Results = append(st.Results, batch...)
			}) {
				s.bus.Publish(eventbus.ResultsAppendedEvent{Count: len(batch)})
			}
		},
		OnSuggestions: func(batch []domain.Suggestion, pushToTop bool) {
			if s.fold(gen, func(st *State) {
				if pushToTop {
					st.Suggestions = append(append([]domain.Suggestion{}, batch...), st.Suggestions...)
				} else {
					st.Suggestions = append(st.Suggestions, batch...)
				}
			}) {
				s.bus.Publish(eventbus.SuggestionsUpdatedEvent{Count: len(batch)})
			}
		},
		OnAlert: func(alert domain.Alert) {
			// Alerts never touch session state; they only surface as a
			// notification, and only while their generation is current.
			if s.isCurrent(gen) {
				s.bus.Publish(eventbus.AlertRaisedEvent{Alert: alert})
			}
		},
		OnProgress: func(progress domain.Progress) {
			if s.fold(gen, func(st *State) {
				st.Summary = formatSummary(progress)
			}) {
				s.bus.Publish(eventbus.ProgressUpdatedEvent{Progress: progress})
			}
		},
	}

	go s.run(ctx, gen, queryText, pattern, cb)
}

// Snapshot returns a copy of the current state, safe to retain and render.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Results:     append([]domain.SearchResult(nil), s.state.Results...),
		Suggestions: append([]domain.Suggestion(nil), s.state.Suggestions...),
		Summary:     s.state.Summary,
		IsLoading:   s.state.IsLoading,
	}
}

// Close cancels any in-flight search.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) run(ctx context.Context, gen uint64, queryText string, pattern domain.PatternType, cb Callbacks) {
	err := s.transport.Search(ctx, queryText, pattern, cb)

	switch {
	case err == nil:
		var count int
		if s.fold(gen, func(st *State) {
			st.IsLoading = false
			count = len(st.Results)
		}) {
			s.logger.Debug("search completed",
				zap.Uint64("generation", gen), zap.Int("results", count))
			s.bus.Publish(eventbus.SearchCompletedEvent{ResultCount: count})
		}
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		// Superseded generation: silent, no state mutation.
		s.logger.Debug("search superseded", zap.Uint64("generation", gen))
	default:
		if s.fold(gen, func(st *State) {
			// Partial results stay visible on failure.
			st.IsLoading = false
		}) {
			s.logger.Warn("search failed",
				zap.Uint64("generation", gen), zap.Error(err))
			s.bus.Publish(eventbus.SearchFailedEvent{Query: queryText, Err: err})
		}
	}
}

// fold applies fn to the state iff gen is still the active generation.
// This check, not transport cooperation, is the authoritative guard
// against stale writes.
func (s *Session) fold(gen uint64, fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	fn(&s.state)
	return true
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func formatSummary(p domain.Progress) string {
	noun := "results"
	if p.MatchCount == 1 {
		noun = "result"
	}
	return fmt.Sprintf("%d %s in %.0fms", p.MatchCount, noun, p.DurationMs)
}
