package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"smartfind/internal/api"
	"smartfind/internal/config"
	"smartfind/internal/domain"
	"smartfind/internal/eventbus"
	"smartfind/internal/notifications"
	"smartfind/internal/reservation"
	"smartfind/internal/session"
	"smartfind/internal/suggest"
	"smartfind/internal/ui/views"
)

// Client is everything the terminal client asks of the server
type Client interface {
	suggest.API
	reservation.API
	notifications.API
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Me(ctx context.Context) (domain.User, error)
}

type screen int

const (
	screenSearch screen = iota
	screenEquipment
)

// Model represents the UI state
type Model struct {
	bus     eventbus.EventBus
	config  *config.Config
	client  Client
	session *session.Session

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	styles  *views.Styles

	width  int
	height int
	screen screen

	suggest     *suggest.Engine
	feed        *notifications.Feed
	reservation *reservation.Controller // nil outside the equipment screen

	results      []domain.SearchResult
	resultsQuery string
	resultsError string
	resultCursor int
	focusResults bool
	searching    bool

	user          *domain.User
	statusMessage string
	startOn       int64

	inPagerMode bool
	program     *tea.Program
	now         func() time.Time
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, cfg *config.Config, client Client, sess *session.Session) *Model {
	input := textinput.New()
	input.Placeholder = "Search equipment (projector, 3D printer, room B204...)"
	input.Prompt = "⌕ "
	input.CharLimit = 120
	input.Width = 56
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	timeout := cfg.Server.Timeout()

	return &Model{
		bus:     bus,
		config:  cfg,
		client:  client,
		session: sess,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: sp,
		input:   input,
		styles:  views.NewStyles(),
		suggest: suggest.New(client, suggest.Options{
			Debounce: cfg.Suggestions.Debounce(),
			Limit:    cfg.Suggestions.Limit,
			CacheTTL: cfg.Suggestions.CacheTTL(),
			Timeout:  timeout,
		}),
		feed: notifications.New(client, notifications.Options{
			Limit:        cfg.Notifications.Limit,
			PollInterval: cfg.Notifications.PollInterval(),
			Timeout:      timeout,
		}),
		now: time.Now,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// OpenOnStart makes the client start on an equipment view instead of search
func (m *Model) OpenOnStart(equipmentID int64) {
	m.startOn = equipmentID
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.session != nil && m.session.Active() {
		cmds = append(cmds, m.checkSession(), m.feed.Start())
	}
	if m.startOn > 0 {
		cmds = append(cmds, m.openEquipment(m.startOn))
	}
	return tea.Batch(cmds...)
}

// checkSession asks the server who we are; a rejection ends the session
func (m *Model) checkSession() tea.Cmd {
	client, timeout := m.client, m.config.Server.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		user, err := client.Me(ctx)
		return sessionCheckedMsg{user: user, err: err}
	}
}

func (m *Model) search(query string) tea.Cmd {
	m.searching = true
	m.resultsQuery = query
	m.resultsError = ""
	m.focusResults = false
	client, timeout := m.client, m.config.Server.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		results, err := client.Search(ctx, query)
		return searchResultsMsg{query: query, results: results, err: err}
	}
}

func (m *Model) openEquipment(id int64) tea.Cmd {
	m.reservation = reservation.New(m.client, id, m.config.Server.Timeout())
	m.screen = screenEquipment
	m.input.Blur()
	m.suggest.Dismiss()
	return m.reservation.Init()
}

func (m *Model) backToSearch() tea.Cmd {
	m.reservation = nil
	m.screen = screenSearch
	return m.input.Focus()
}

func (m *Model) logout() tea.Cmd {
	log.Printf("Logging out")
	if m.session != nil {
		m.session.Clear(domain.SessionLoggedOut)
	}
	m.feed.Stop()
	m.user = nil
	return m.setStatus("Logged out.")
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusMessage = text
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// showInPager returns a command that shows content using ov pager
func (m *Model) showInPager(what, content string) tea.Cmd {
	if m.program == nil {
		return nil
	}
	program := m.program
	return func() tea.Msg {
		// Send pause message to stop rendering
		program.Send(pauseRenderingMsg{})
		err := NewPagerOps(program).Show(content)
		// Send resume message to restart rendering
		program.Send(resumeRenderingMsg{})
		return pagerMsg{what: what, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, m.handleNonKeyboardMsg(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}

	// The notification panel is modal while open
	if m.feed.State().Open {
		return m.handlePanelKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Notifications):
		return m.feed.ToggleOpen()
	case key.Matches(msg, m.keys.Help):
		return m.showInPager("help", RenderHelpContent())
	case key.Matches(msg, m.keys.Logout):
		if m.session == nil || !m.session.Active() {
			return nil
		}
		return m.logout()
	}

	if m.screen == screenEquipment {
		return m.handleEquipmentKey(msg)
	}
	return m.handleSearchKey(msg)
}

func (m *Model) handlePanelKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.feed.CursorUp()
	case key.Matches(msg, m.keys.Down):
		m.feed.CursorDown()
	case key.Matches(msg, m.keys.Select):
		return m.feed.SelectCurrent()
	case key.Matches(msg, m.keys.MarkAll):
		return m.feed.MarkAllRead()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Notifications):
		m.feed.Close()
	}
	return nil
}

func (m *Model) handleEquipmentKey(msg tea.KeyMsg) tea.Cmd {
	c := m.reservation
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.backToSearch()
	case key.Matches(msg, m.keys.Reserve):
		return c.Reserve()
	case key.Matches(msg, m.keys.Cancel):
		return c.Cancel()
	case key.Matches(msg, m.keys.Complete):
		return c.Complete()
	case key.Matches(msg, m.keys.Reload):
		return c.Reload()
	case key.Matches(msg, m.keys.Dismiss):
		c.DismissFeedback()
	case key.Matches(msg, m.keys.Details):
		st := c.State()
		if st.Equipment != nil {
			return m.showInPager("details", views.RenderEquipmentDetail(st.Equipment, st.QueueCount))
		}
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	if m.focusResults {
		switch {
		case key.Matches(msg, m.keys.Up):
			if n := len(m.results); n > 0 {
				m.resultCursor = (m.resultCursor - 1 + n) % n
			}
		case key.Matches(msg, m.keys.Down):
			if n := len(m.results); n > 0 {
				m.resultCursor = (m.resultCursor + 1) % n
			}
		case key.Matches(msg, m.keys.Select):
			if m.resultCursor < len(m.results) {
				return m.openEquipment(m.results[m.resultCursor].ID)
			}
		case key.Matches(msg, m.keys.Results), key.Matches(msg, m.keys.Back):
			m.focusResults = false
			m.suggest.Reopen()
			return m.input.Focus()
		}
		return nil
	}

	if handled, cmd := m.suggest.HandleKey(msg); handled {
		m.input.SetValue(m.suggest.State().Query)
		m.input.CursorEnd()
		return cmd
	}

	if key.Matches(msg, m.keys.Results) {
		if len(m.results) > 0 {
			m.focusResults = true
			m.resultCursor = 0
			m.suggest.Dismiss()
			m.input.Blur()
		}
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return tea.Batch(cmd, m.suggest.SetQuery(m.input.Value()))
	}
	return cmd
}

func (m *Model) handleNonKeyboardMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case EventMsg:
		return m.handleEvent(msg.Event)

	case sessionCheckedMsg:
		if msg.err != nil {
			// Transport trouble: keep the session, the feed retries on its own
			if api.IsTransport(msg.err) {
				log.Printf("Session check could not reach the server: %v", msg.err)
				return nil
			}
			if status := api.StatusOf(msg.err); status == 401 || status == 403 {
				log.Printf("Session rejected by server: %v", msg.err)
				if m.session != nil {
					m.session.Clear(domain.SessionRejected)
				}
				m.feed.Stop()
				return m.setStatus("Your session is no longer valid; set a new token.")
			}
			log.Printf("Session check failed: %v", msg.err)
			return nil
		}
		user := msg.user
		m.user = &user
		return nil

	case suggest.SubmitMsg:
		m.input.SetValue(msg.Query)
		m.input.CursorEnd()
		return m.search(msg.Query)

	case searchResultsMsg:
		// A newer submission supersedes this one
		if msg.query != m.resultsQuery {
			return nil
		}
		m.searching = false
		m.resultCursor = 0
		if msg.err != nil {
			log.Printf("Search for %q failed: %v", msg.query, msg.err)
			m.results = nil
			m.resultsError = api.DetailOr(msg.err, "Search failed.")
			return nil
		}
		m.results = msg.results
		return nil

	case notifications.OpenEquipmentMsg:
		return m.openEquipment(msg.ID)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case pagerMsg:
		if msg.err != nil {
			log.Printf("Pager for %s failed: %v", msg.what, msg.err)
			if m.bus != nil {
				m.bus.Publish(eventbus.ErrorEvent{Message: "Could not open the pager.", Err: msg.err})
			}
		}
		return nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return nil

	case clearStatusMsg:
		m.statusMessage = ""
		return nil
	}

	// Component messages: each ignores what is not addressed to it
	cmds := []tea.Cmd{m.suggest.Update(msg), m.feed.Update(msg)}
	if m.reservation != nil {
		cmds = append(cmds, m.reservation.Update(msg))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case eventbus.SessionStartedEvent:
		log.Printf("Session started for %q", e.Subject)
		if m.feed.State().Active {
			return nil
		}
		return tea.Batch(m.feed.Start(), m.checkSession())
	case eventbus.SessionEndedEvent:
		log.Printf("Session ended: %s", e.Reason)
		m.feed.Stop()
		m.user = nil
		if e.Reason == domain.SessionExpired {
			return m.setStatus("Your session expired.")
		}
	case eventbus.ErrorEvent:
		return m.setStatus(e.Message)
	}
	return nil
}

// View renders the UI
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}

	var body string
	var helpKeys help.KeyMap
	if m.screen == screenEquipment && m.reservation != nil {
		c := m.reservation
		body = views.RenderEquipment(m.styles, views.EquipmentView{
			State:       c.State(),
			CanReserve:  c.CanReserve(),
			CanCancel:   c.CanCancel(),
			CanComplete: c.CanComplete(),
			Spinner:     m.spinner.View(),
		})
		helpKeys = equipmentHelp{m.keys}
	} else {
		body = views.RenderSearch(m.styles, views.SearchView{
			Input:        m.input.View(),
			Suggestions:  m.suggest.State(),
			Results:      m.results,
			ResultsQuery: m.resultsQuery,
			ResultsError: m.resultsError,
			Cursor:       m.resultCursor,
			FocusResults: m.focusResults,
			Searching:    m.searching,
			Spinner:      m.spinner.View(),
		})
		helpKeys = searchHelp{m.keys}
	}

	feed := m.feed.State()
	if feed.Open {
		panel := views.RenderNotificationPanel(m.styles, feed, m.now())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", panel)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(feed))
	b.WriteString("\n\n")
	b.WriteString(body)
	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Status.Render(m.statusMessage))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(helpKeys)))

	return m.styles.Main.Render(b.String())
}

func (m *Model) renderHeader(feed notifications.State) string {
	title := m.styles.Title.Render("SmartFind")
	var who string
	switch {
	case m.user != nil:
		who = m.styles.Dim.Render(m.user.DisplayName())
	case m.session != nil && m.session.Active():
		who = m.styles.Dim.Render(m.session.Subject())
	default:
		who = m.styles.StatusWarning.Render("not signed in")
	}
	if m.session != nil && m.session.Active() {
		if role := m.session.Role(); role != "" {
			who += " " + m.styles.Dim.Render("("+role+")")
		}
		if exp := m.session.ExpiresAt(); !exp.IsZero() {
			who += " " + m.styles.Dim.Render("until "+exp.Local().Format("15:04"))
		}
	}
	bell := views.RenderBell(m.styles, feed)
	return fmt.Sprintf("%s  %s  %s", title, who, bell)
}
