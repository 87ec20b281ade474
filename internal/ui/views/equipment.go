package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smartfind/internal/domain"
	"smartfind/internal/reservation"
)

// EquipmentView is everything the equipment screen shows
type EquipmentView struct {
	State       reservation.State
	CanReserve  bool
	CanCancel   bool
	CanComplete bool
	Spinner     string
}

// RenderEquipment renders the equipment card with its reservation controls
func RenderEquipment(s *Styles, v EquipmentView) string {
	st := v.State
	if st.Equipment == nil {
		if st.Loading {
			return s.StatusLoading.Render(fmt.Sprintf("%s Loading equipment #%d...", v.Spinner, st.EquipmentID))
		}
		return s.Card.Render(s.StatusError.Render(st.LoadError))
	}

	eq := st.Equipment
	var b strings.Builder

	b.WriteString(s.Title.Render(eq.Name))
	if meta := strings.Join(nonEmpty(eq.Type, eq.Brand), " · "); meta != "" {
		b.WriteString("  " + s.Dim.Render(meta))
	}
	b.WriteString("\n\n")

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(StatusColor(eq.Status))).Bold(true)
	b.WriteString(field(s, "Status", statusStyle.Render(orDash(eq.StatusText))))
	b.WriteString(field(s, "Location", FormatLocation(eq.Location)))
	b.WriteString(field(s, "Queue", fmt.Sprintf("%d waiting", st.QueueCount)))
	b.WriteString(field(s, "You", reservationLabel(eq.MyReservationStatus)))
	if len(eq.Features) > 0 {
		b.WriteString(field(s, "Features", strings.Join(eq.Features, ", ")))
	}

	b.WriteString("\n")
	b.WriteString(renderActions(s, v))

	if st.Busy || st.Loading {
		b.WriteString("\n" + s.StatusLoading.Render(v.Spinner+" Working..."))
	}
	switch st.Feedback.Kind {
	case reservation.FeedbackSuccess:
		b.WriteString("\n" + s.StatusSuccess.Render("✓ "+st.Feedback.Text))
	case reservation.FeedbackError:
		b.WriteString("\n" + s.StatusError.Render("✗ "+st.Feedback.Text))
	}

	return s.Card.Render(b.String())
}

// RenderEquipmentDetail renders the long-form description shown in the pager
func RenderEquipmentDetail(eq *domain.Equipment, queueCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", eq.Name, eq.ID)
	fmt.Fprintf(&b, "Type:      %s\n", orDash(eq.Type))
	fmt.Fprintf(&b, "Brand:     %s\n", orDash(eq.Brand))
	fmt.Fprintf(&b, "Status:    %s\n", orDash(eq.StatusText))
	fmt.Fprintf(&b, "Location:  %s\n", FormatLocation(eq.Location))
	fmt.Fprintf(&b, "Queue:     %d waiting\n", queueCount)
	if len(eq.Features) > 0 {
		b.WriteString("\nFeatures:\n")
		for _, f := range eq.Features {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	if eq.Description != "" {
		b.WriteString("\n")
		b.WriteString(eq.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatLocation joins the known parts of a location
func FormatLocation(l domain.Location) string {
	var parts []string
	if l.Building != "" {
		parts = append(parts, "Building "+l.Building)
	}
	if l.Floor != nil {
		parts = append(parts, fmt.Sprintf("floor %d", *l.Floor))
	}
	if l.Room != "" {
		parts = append(parts, "room "+l.Room)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func renderActions(s *Styles, v EquipmentView) string {
	eq := v.State.Equipment
	switch {
	case eq.MyReservationStatus == domain.ReservationActive:
		return action(s, "d", "complete (release the equipment)", v.CanComplete)
	case eq.MyReservationStatus == domain.ReservationWaiting:
		return action(s, "c", "leave the waiting line", v.CanCancel)
	case eq.IsBroken():
		return s.StatusWarning.Render("Out of order: reservations are closed.")
	default:
		return action(s, "r", "reserve", v.CanReserve)
	}
}

func action(s *Styles, k, desc string, enabled bool) string {
	if !enabled {
		return s.Dim.Render(fmt.Sprintf("[%s] %s", k, desc))
	}
	return s.Highlight.Render("["+k+"]") + " " + desc
}

func reservationLabel(st domain.ReservationStatus) string {
	switch st {
	case domain.ReservationActive:
		return "in use by you"
	case domain.ReservationWaiting:
		return "waiting in line"
	default:
		return "no reservation"
	}
}

func field(s *Styles, label, value string) string {
	return fmt.Sprintf("%s %s\n", s.Label.Render(fmt.Sprintf("%-9s", label)), value)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
