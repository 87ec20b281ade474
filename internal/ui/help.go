package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
)

// RenderHelpContent generates the full help shown in the pager
func RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	line := func(k, desc string) string {
		return fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", k)), descStyle.Render(desc))
	}

	var help strings.Builder

	help.WriteString(titleStyle.Render("SmartFind Help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Search"))
	help.WriteString("\n")
	help.WriteString(line("type", "Search equipment; suggestions appear as you type"))
	help.WriteString(line("↑/↓", "Move through suggestions"))
	help.WriteString(line("Enter", "Search for the highlighted suggestion or the typed text"))
	help.WriteString(line("Esc", "Close suggestions"))
	help.WriteString(line("Tab", "Move between the search box and the results"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Equipment"))
	help.WriteString("\n")
	help.WriteString(line("r", "Reserve (or join the waiting line)"))
	help.WriteString(line("c", "Leave the waiting line"))
	help.WriteString(line("d", "Done: release the equipment you are using"))
	help.WriteString(line("Ctrl+R", "Reload details and queue"))
	help.WriteString(line("p", "Show full details in a pager"))
	help.WriteString(line("x", "Dismiss the last message"))
	help.WriteString(line("Esc", "Back to search"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Notifications"))
	help.WriteString("\n")
	help.WriteString(line("Ctrl+N", "Open or close the notification panel"))
	help.WriteString(line("↑/↓", "Move through notifications"))
	help.WriteString(line("Enter", "Mark read and open the related equipment"))
	help.WriteString(line("a", "Mark all as read"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	help.WriteString(line("F1", "Show this help"))
	help.WriteString(line("Ctrl+O", "Log out"))
	help.WriteString(strings.TrimSuffix(line("Ctrl+C", "Quit"), "\n"))

	return help.String()
}

// PagerOps shows long content in ov while the program's terminal is released
type PagerOps struct {
	program *tea.Program
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps(program *tea.Program) *PagerOps {
	return &PagerOps{program: program}
}

// Show displays content using ov pager
func (p *PagerOps) Show(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
