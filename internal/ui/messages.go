package ui

import (
	"codesurf/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// detailDocMsg contains a resolved detail document
type detailDocMsg struct {
	url string // result URL the document belongs to
	doc string
}

// pagerDoneMsg signals that the external pager exited
type pagerDoneMsg struct {
	err error
}

// clearNoticeMsg clears the notice bar after its display period
type clearNoticeMsg struct {
	seq int // ignore stale timers when a newer notice replaced the old one
}
