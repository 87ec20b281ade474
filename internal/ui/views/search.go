package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smartfind/internal/domain"
	"smartfind/internal/suggest"
)

// SearchView is everything the search screen shows
type SearchView struct {
	Input        string // rendered text input
	Suggestions  suggest.State
	Results      []domain.SearchResult
	ResultsQuery string
	ResultsError string
	Cursor       int
	FocusResults bool
	Searching    bool
	Spinner      string
}

// RenderSearch renders the search box, its suggestion popover and the result list
func RenderSearch(s *Styles, v SearchView) string {
	var b strings.Builder

	b.WriteString(s.Input.Render(v.Input))
	b.WriteString("\n")

	if v.Suggestions.Open && len(v.Suggestions.Items) > 0 {
		b.WriteString(renderPopover(s, v.Suggestions))
		b.WriteString("\n")
	}

	switch {
	case v.Searching:
		b.WriteString(s.StatusLoading.Render(fmt.Sprintf("%s Searching %q...", v.Spinner, v.ResultsQuery)))
	case v.ResultsError != "":
		b.WriteString(s.StatusError.Render(v.ResultsError))
	case v.ResultsQuery != "" && len(v.Results) == 0:
		b.WriteString(s.Dim.Render(fmt.Sprintf("No equipment matches %q.", v.ResultsQuery)))
	case len(v.Results) > 0:
		b.WriteString(s.Label.Render(fmt.Sprintf("%d result(s) for %q", len(v.Results), v.ResultsQuery)))
		b.WriteString("\n")
		for i, r := range v.Results {
			b.WriteString(renderResult(s, r, v.FocusResults && i == v.Cursor))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderPopover(s *Styles, st suggest.State) string {
	lines := make([]string, len(st.Items))
	for i, item := range st.Items {
		if i == st.ActiveIndex {
			lines[i] = s.HighlightBg.Render(s.Highlight.Render("> " + item))
		} else {
			lines[i] = "  " + item
		}
	}
	return s.Popover.Render(strings.Join(lines, "\n"))
}

func renderResult(s *Styles, r domain.SearchResult, selected bool) string {
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(StatusColor(r.Status))).Render(r.StatusText)
	meta := strings.TrimSpace(strings.Join(nonEmpty(r.Type, r.Brand), " · "))
	line := fmt.Sprintf("%-28s %-24s %s", truncate(r.Name, 28), truncate(meta, 24), status)
	if selected {
		return s.HighlightBg.Render("> " + line)
	}
	return "  " + line
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
