package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted      EventType = "SearchStarted"
	EventResultsAppended    EventType = "ResultsAppended"
	EventSuggestionsUpdated EventType = "SuggestionsUpdated"
	EventProgressUpdated    EventType = "ProgressUpdated"
	EventAlertRaised        EventType = "AlertRaised"
	EventSearchCompleted    EventType = "SearchCompleted"
	EventSearchFailed       EventType = "SearchFailed"
	EventError              EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a new search generation begins
type SearchStartedEvent struct {
	Query   string
	Pattern PatternType
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// ResultsAppendedEvent is emitted after a result batch has been folded in
type ResultsAppendedEvent struct {
	Count int // batch size, not the running total
}

func (e ResultsAppendedEvent) Type() EventType { return EventResultsAppended }

// SuggestionsUpdatedEvent is emitted after a suggestion batch has been folded in
type SuggestionsUpdatedEvent struct {
	Count int
}

func (e SuggestionsUpdatedEvent) Type() EventType { return EventSuggestionsUpdated }

// ProgressUpdatedEvent is emitted when the backend reports new totals
type ProgressUpdatedEvent struct {
	Progress Progress
}

func (e ProgressUpdatedEvent) Type() EventType { return EventProgressUpdated }

// AlertRaisedEvent surfaces a backend warning about the query
type AlertRaisedEvent struct {
	Alert Alert
}

func (e AlertRaisedEvent) Type() EventType { return EventAlertRaised }

// SearchCompletedEvent is emitted when a generation's stream ends cleanly
type SearchCompletedEvent struct {
	ResultCount int
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when a generation's stream aborts abnormally.
// Results accumulated before the failure remain visible.
type SearchFailedEvent struct {
	Query string
	Err   error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// ErrorEvent is emitted when an error occurs outside a search stream
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
