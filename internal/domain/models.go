package domain

import (
	"strings"
	"time"
)

// ReservationStatus is the requesting user's standing on one equipment item
type ReservationStatus string

// The zero value is NONE.
const (
	ReservationNone    ReservationStatus = ""
	ReservationWaiting ReservationStatus = "WAITING"
	ReservationActive  ReservationStatus = "ACTIVE"
)

func (s ReservationStatus) String() string {
	if s == ReservationNone {
		return "NONE"
	}
	return string(s)
}

// ParseReservationStatus maps the server's free-form status onto the three client states.
// Anything that is not an open reservation (cancelled, done, empty) is NONE.
func ParseReservationStatus(raw string) ReservationStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACTIVE":
		return ReservationActive
	case "WAITING":
		return ReservationWaiting
	default:
		return ReservationNone
	}
}

// EquipmentStatus is the coarse availability class of an equipment item
type EquipmentStatus int

const (
	EquipmentOther EquipmentStatus = iota
	EquipmentFree
	EquipmentBroken
)

// ClassifyEquipmentStatus derives the availability class from the server's status text,
// which is localized ("Disponible", "Panne", "Out of order", "Averiado", ...).
func ClassifyEquipmentStatus(text string) EquipmentStatus {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "panne"),
		strings.Contains(lower, "out of order"),
		strings.Contains(lower, "aver"):
		return EquipmentBroken
	case strings.Contains(lower, "disponible"), strings.Contains(lower, "available"):
		return EquipmentFree
	default:
		return EquipmentOther
	}
}

// Location is where an equipment item physically sits
type Location struct {
	Building string
	Floor    *int
	Room     string
}

// Equipment is a read-only snapshot of one item as seen by the current user
type Equipment struct {
	ID          int64
	Name        string
	Type        string
	Brand       string
	StatusText  string
	Status      EquipmentStatus
	Location    Location
	Description string
	Features    []string

	QueueCount          int
	ActiveReservationID *int64
	MyReservationID     *int64
	MyReservationStatus ReservationStatus
}

// IsBroken reports whether the item cannot be reserved at all
func (e Equipment) IsBroken() bool {
	return e.Status == EquipmentBroken
}

// HasReservation reports whether the current user holds a waiting or active reservation
func (e Equipment) HasReservation() bool {
	return e.MyReservationStatus == ReservationWaiting || e.MyReservationStatus == ReservationActive
}

// QueueInfo is the waiting-line snapshot for one item
type QueueInfo struct {
	EquipmentID  int64
	WaitingCount int
	Known        bool // false when the server omitted or garbled waiting_count
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationTurnReady   NotificationType = "TURN_READY"
	NotificationReservation NotificationType = "RESERVATION"
	NotificationAlert       NotificationType = "ALERT"
	NotificationInfo        NotificationType = "INFO"
)

// ParseNotificationType normalizes a server type; unknown values are INFO
func ParseNotificationType(raw string) NotificationType {
	switch t := NotificationType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case NotificationTurnReady, NotificationReservation, NotificationAlert:
		return t
	default:
		return NotificationInfo
	}
}

// Label returns the short human label for the type
func (t NotificationType) Label() string {
	switch t {
	case NotificationTurnReady:
		return "Your turn"
	case NotificationReservation:
		return "Reservation"
	case NotificationAlert:
		return "Alert"
	default:
		return "Info"
	}
}

// Notification is one item of the user's notification stream
type Notification struct {
	ID                int64
	Type              NotificationType
	Message           string
	Timestamp         time.Time // zero when the server sent none or an unparseable one
	Read              bool
	TargetEquipmentID *int64
}

// NotificationPage is one feed fetch: a bounded window plus the authoritative unread total
type NotificationPage struct {
	Items       []Notification
	UnreadCount int
}

// SearchResult is one row of a search submission
type SearchResult struct {
	ID         int64
	Name       string
	Type       string
	Brand      string
	StatusText string
	Status     EquipmentStatus
	Room       string
}

// User is the authenticated account
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// DisplayName returns "First Last", falling back to the email
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
