package notifications

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"smartfind/internal/domain"
)

// API is the slice of the server the feed needs
type API interface {
	Notifications(ctx context.Context, limit int) (domain.NotificationPage, error)
	MarkNotificationRead(ctx context.Context, id int64) (int, error)
	MarkAllNotificationsRead(ctx context.Context) error
}

// Options tune the feed
type Options struct {
	Limit        int
	PollInterval time.Duration
	Timeout      time.Duration
}

// DefaultOptions returns the feed defaults
func DefaultOptions() Options {
	return Options{
		Limit:        12,
		PollInterval: 30 * time.Second,
		Timeout:      10 * time.Second,
	}
}

// OpenEquipmentMsg asks the host to navigate to an equipment view
type OpenEquipmentMsg struct {
	ID int64
}

// State is what the badge and the panel render
type State struct {
	Active  bool
	Items   []domain.Notification
	Unread  int
	Open    bool
	Loading bool
	Cursor  int
}

type pollMsg struct {
	feed uint64
	gen  uint64
}

type fetchedMsg struct {
	feed uint64
	gen  uint64
	page domain.NotificationPage
	err  error
}

type markedReadMsg struct {
	feed   uint64
	gen    uint64
	id     int64
	unread int
	err    error
	then   *int64 // equipment to open once the mark settles
}

type markedAllMsg struct {
	feed uint64
	gen  uint64
	err  error
}

var feedIDs atomic.Uint64

// Feed keeps the session's notification window and unread counter in step
// with the server. Methods must be called from the bubbletea update loop.
type Feed struct {
	api   API
	opts  Options
	id    uint64
	gen   uint64 // bumped on Start and Stop; orphans ticks and replies of a previous session
	state State
}

// New creates an inactive feed. A zero Options field takes its default.
func New(api API, opts Options) *Feed {
	def := DefaultOptions()
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Feed{api: api, opts: opts, id: feedIDs.Add(1)}
}

// State returns a snapshot for rendering
func (f *Feed) State() State {
	s := f.state
	s.Items = append([]domain.Notification(nil), f.state.Items...)
	return s
}

// Start activates the feed for a new session: fetch now, then poll
func (f *Feed) Start() tea.Cmd {
	if f.state.Active {
		return nil
	}
	f.gen++
	f.state = State{Active: true}
	return tea.Batch(f.Fetch(), f.tick())
}

// Stop tears the feed down. Any pending tick or reply is orphaned.
func (f *Feed) Stop() {
	f.gen++
	f.state = State{}
}

func (f *Feed) tick() tea.Cmd {
	id, gen := f.id, f.gen
	return tea.Tick(f.opts.PollInterval, func(time.Time) tea.Msg {
		return pollMsg{feed: id, gen: gen}
	})
}

// Fetch refreshes the window. It is a no-op while another fetch is in flight.
func (f *Feed) Fetch() tea.Cmd {
	if !f.state.Active || f.state.Loading {
		return nil
	}
	f.state.Loading = true

	client, id, gen, limit, timeout := f.api, f.id, f.gen, f.opts.Limit, f.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := client.Notifications(ctx, limit)
		return fetchedMsg{feed: id, gen: gen, page: page, err: err}
	}
}

// ToggleOpen shows or hides the panel; showing it refreshes immediately
func (f *Feed) ToggleOpen() tea.Cmd {
	if !f.state.Active {
		return nil
	}
	if f.state.Open {
		f.Close()
		return nil
	}
	f.state.Open = true
	f.state.Cursor = 0
	return f.Fetch()
}

// Close hides the panel
func (f *Feed) Close() {
	f.state.Open = false
}

func (f *Feed) find(id int64) int {
	for i, n := range f.state.Items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// MarkRead flags one cached unread notification. Read or unknown items are
// left alone.
func (f *Feed) MarkRead(id int64) tea.Cmd {
	return f.markRead(id, nil)
}

func (f *Feed) markRead(id int64, then *int64) tea.Cmd {
	i := f.find(id)
	if !f.state.Active || i < 0 || f.state.Items[i].Read {
		return nil
	}

	client, feedID, gen, timeout := f.api, f.id, f.gen, f.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		unread, err := client.MarkNotificationRead(ctx, id)
		return markedReadMsg{feed: feedID, gen: gen, id: id, unread: unread, err: err, then: then}
	}
}

func openEquipment(id int64) tea.Cmd {
	return func() tea.Msg { return OpenEquipmentMsg{ID: id} }
}

// MarkAllRead flags every notification of the user
func (f *Feed) MarkAllRead() tea.Cmd {
	if !f.state.Active {
		return nil
	}
	client, id, gen, timeout := f.api, f.id, f.gen, f.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return markedAllMsg{feed: id, gen: gen, err: client.MarkAllNotificationsRead(ctx)}
	}
}

// Select marks the item read if needed and, when it points at equipment,
// closes the panel and asks the host to open that equipment
func (f *Feed) Select(id int64) tea.Cmd {
	i := f.find(id)
	if i < 0 {
		return nil
	}
	item := f.state.Items[i]

	var target *int64
	if item.TargetEquipmentID != nil {
		t := *item.TargetEquipmentID
		target = &t
		f.Close()
	}

	// Navigation waits for the mark to settle, whatever its outcome
	if mark := f.markRead(id, target); mark != nil {
		return mark
	}
	if target != nil {
		return openEquipment(*target)
	}
	return nil
}

// SelectCurrent selects the item under the cursor
func (f *Feed) SelectCurrent() tea.Cmd {
	if f.state.Cursor < 0 || f.state.Cursor >= len(f.state.Items) {
		return nil
	}
	return f.Select(f.state.Items[f.state.Cursor].ID)
}

// CursorDown moves the panel cursor, wrapping at the end
func (f *Feed) CursorDown() {
	if n := len(f.state.Items); n > 0 {
		f.state.Cursor = (f.state.Cursor + 1) % n
	}
}

// CursorUp moves the panel cursor, wrapping at the top
func (f *Feed) CursorUp() {
	if n := len(f.state.Items); n > 0 {
		f.state.Cursor = (f.state.Cursor - 1 + n) % n
	}
}

// Update consumes the feed's own messages
func (f *Feed) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pollMsg:
		if msg.feed != f.id || msg.gen != f.gen || !f.state.Active {
			return nil
		}
		return tea.Batch(f.Fetch(), f.tick())

	case fetchedMsg:
		if msg.feed != f.id || msg.gen != f.gen {
			return nil
		}
		f.state.Loading = false
		if msg.err != nil {
			log.Printf("notifications: fetch failed: %v", msg.err)
			f.state.Items = nil
			f.state.Unread = 0
		} else {
			f.state.Items = msg.page.Items
			f.state.Unread = max(msg.page.UnreadCount, 0)
		}
		if f.state.Cursor >= len(f.state.Items) {
			f.state.Cursor = 0
		}

	case markedReadMsg:
		if msg.feed != f.id || msg.gen != f.gen {
			return nil
		}
		if msg.err != nil {
			// The next poll reconciles
			log.Printf("notifications: mark %d read failed: %v", msg.id, msg.err)
		} else {
			f.state.Unread = max(msg.unread, 0)
			if i := f.find(msg.id); i >= 0 {
				f.state.Items[i].Read = true
			}
		}
		if msg.then != nil {
			return openEquipment(*msg.then)
		}

	case markedAllMsg:
		if msg.feed != f.id || msg.gen != f.gen {
			return nil
		}
		if msg.err != nil {
			log.Printf("notifications: mark all read failed: %v", msg.err)
			return nil
		}
		f.state.Unread = 0
		for i := range f.state.Items {
			f.state.Items[i].Read = true
		}
	}
	return nil
}
