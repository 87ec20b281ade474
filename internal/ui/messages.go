package ui

import (
	"smartfind/internal/domain"
	"smartfind/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// sessionCheckedMsg carries the result of validating the session at start-up
type sessionCheckedMsg struct {
	user domain.User
	err  error
}

// searchResultsMsg contains the result of a search submission
type searchResultsMsg struct {
	query   string
	results []domain.SearchResult
	err     error
}

// pagerMsg contains the result of a pager command
type pagerMsg struct {
	what string
	err  error
}

// clearStatusMsg clears the status line
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
