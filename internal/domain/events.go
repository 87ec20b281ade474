package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSessionStarted EventType = "SessionStarted"
	EventSessionEnded   EventType = "SessionEnded"
	EventError          EventType = "Error"
	EventConfigLoaded   EventType = "ConfigLoaded"
	EventConfigSaved    EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SessionEndReason says why a session was cleared
type SessionEndReason string

const (
	SessionLoggedOut SessionEndReason = "logout"
	SessionExpired   SessionEndReason = "expired"
	SessionRejected  SessionEndReason = "rejected"
)

// SessionStartedEvent is emitted when a bearer credential becomes available
type SessionStartedEvent struct {
	Subject string
}

func (e SessionStartedEvent) Type() EventType { return EventSessionStarted }

// SessionEndedEvent is emitted when the credential is cleared (logout, 401, expiry)
type SessionEndedEvent struct {
	Reason SessionEndReason
}

func (e SessionEndedEvent) Type() EventType { return EventSessionEnded }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path    string
	BaseURL string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
