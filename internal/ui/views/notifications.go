package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"smartfind/internal/notifications"
)

// RenderBell renders the notification indicator for the header
func RenderBell(s *Styles, st notifications.State) string {
	if !st.Active {
		return ""
	}
	badge := notifications.BadgeText(st.Unread)
	if badge == "" {
		return s.Dim.Render("🔔")
	}
	return "🔔" + s.Badge.Render(badge)
}

// RenderNotificationPanel renders the open notification list
func RenderNotificationPanel(s *Styles, st notifications.State, now time.Time) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Notifications"))
	if st.Unread > 0 {
		b.WriteString(s.Dim.Render(fmt.Sprintf("  %d unread", st.Unread)))
	}
	b.WriteString("\n")

	if len(st.Items) == 0 {
		if st.Loading {
			b.WriteString(s.StatusLoading.Render("Loading..."))
		} else {
			b.WriteString(s.Dim.Render("Nothing new."))
		}
		return s.Panel.Render(b.String())
	}

	for i, n := range st.Items {
		accent := lipgloss.NewStyle().Foreground(lipgloss.Color(NotificationColor(n.Type)))
		marker := " "
		if !n.Read {
			marker = accent.Render("●")
		}
		head := fmt.Sprintf("%s %s  %s", marker, accent.Render(n.Type.Label()), s.Dim.Render(notifications.RelativeTime(n.Timestamp, now)))
		msg := n.Message
		if !n.Read {
			msg = s.Unread.Render(msg)
		}
		entry := head + "\n  " + msg
		if i == st.Cursor {
			entry = s.HighlightBg.Render(entry)
		}
		b.WriteString(entry)
		b.WriteString("\n")
	}
	b.WriteString(s.Help.Render("enter open · a mark all read · esc close"))
	return s.Panel.Render(b.String())
}
