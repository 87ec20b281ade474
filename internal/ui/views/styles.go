package views

import (
	"github.com/charmbracelet/lipgloss"

	"smartfind/internal/domain"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Label         lipgloss.Style
	Highlight     lipgloss.Style
	HighlightBg   lipgloss.Style
	Input         lipgloss.Style
	Popover       lipgloss.Style
	Card          lipgloss.Style
	Panel         lipgloss.Style
	Badge         lipgloss.Style
	Unread        lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		Label:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		HighlightBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		Popover: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(1, 2).
			Width(64),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1).
			Width(48),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("161")).
			Bold(true).
			Padding(0, 1),
		Unread:        lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}

// StatusColor returns the color for an equipment availability class
func StatusColor(status domain.EquipmentStatus) string {
	switch status {
	case domain.EquipmentFree:
		return "78" // green
	case domain.EquipmentBroken:
		return "203" // red
	default:
		return "214" // yellow: busy, reserved, maintenance
	}
}

// NotificationColor returns the accent color for a notification type
func NotificationColor(t domain.NotificationType) string {
	switch t {
	case domain.NotificationTurnReady:
		return "78"
	case domain.NotificationAlert:
		return "203"
	case domain.NotificationReservation:
		return "39"
	default:
		return "245"
	}
}
