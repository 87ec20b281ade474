package suggest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/patrickmn/go-cache"
)

// API is the slice of the server the engine needs
type API interface {
	Suggest(ctx context.Context, query string, limit int) ([]string, error)
}

// Options tune the engine
type Options struct {
	Debounce time.Duration
	Limit    int
	CacheTTL time.Duration
	Timeout  time.Duration
}

// DefaultOptions match the server's autocomplete defaults
func DefaultOptions() Options {
	return Options{
		Debounce: 220 * time.Millisecond,
		Limit:    8,
		CacheTTL: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// State is what the popover renders
type State struct {
	Query       string
	Items       []string
	ActiveIndex int // -1 when nothing is highlighted
	Open        bool
}

// SubmitMsg is emitted when the user commits a query, either typed or chosen
type SubmitMsg struct {
	Query string
}

type debounceMsg struct {
	engine uint64
	seq    uint64
	query  string
}

type resultMsg struct {
	engine uint64
	query  string
	items  []string
	err    error
}

var engineIDs atomic.Uint64

// Engine drives autocomplete for one search input. All methods must be
// called from the bubbletea update loop.
type Engine struct {
	api   API
	opts  Options
	cache *cache.Cache
	id    uint64

	seq        uint64
	suppressed bool // closed by the user; late results must not reopen
	state      State
}

// New creates an engine. A zero Options field takes its default, except
// CacheTTL: zero or less disables the cache.
func New(api API, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}

	e := &Engine{
		api:   api,
		opts:  opts,
		id:    engineIDs.Add(1),
		state: State{ActiveIndex: -1},
	}
	if opts.CacheTTL > 0 {
		e.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return e
}

// State returns a snapshot of the popover state
func (e *Engine) State() State {
	s := e.state
	s.Items = append([]string(nil), e.state.Items...)
	return s
}

// Active returns the highlighted suggestion, if any
func (e *Engine) Active() (string, bool) {
	if !e.state.Open || e.state.ActiveIndex < 0 || e.state.ActiveIndex >= len(e.state.Items) {
		return "", false
	}
	return e.state.Items[e.state.ActiveIndex], true
}

// SetQuery records the input text and restarts the debounce window.
// A blank query clears the popover without touching the network.
func (e *Engine) SetQuery(text string) tea.Cmd {
	e.state.Query = text
	e.seq++
	e.suppressed = false

	query := strings.TrimSpace(text)
	if query == "" {
		e.state.Items = nil
		e.close()
		return nil
	}

	id, seq := e.id, e.seq
	return tea.Tick(e.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{engine: id, seq: seq, query: query}
	})
}

// Update consumes the engine's own messages
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounceMsg:
		// Only the trailing change of a burst fires
		if msg.engine != e.id || msg.seq != e.seq {
			return nil
		}
		return e.fetch(msg.query)

	case resultMsg:
		if msg.engine != e.id {
			return nil
		}
		e.apply(msg)
	}
	return nil
}

func (e *Engine) cacheKey(query string) string {
	return fmt.Sprintf("%d|%s", e.opts.Limit, query)
}

func (e *Engine) fetch(query string) tea.Cmd {
	id := e.id
	if e.cache != nil {
		if cached, ok := e.cache.Get(e.cacheKey(query)); ok {
			items := cached.([]string)
			return func() tea.Msg {
				return resultMsg{engine: id, query: query, items: items}
			}
		}
	}

	api, limit, timeout := e.api, e.opts.Limit, e.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := api.Suggest(ctx, query, limit)
		return resultMsg{engine: id, query: query, items: items, err: err}
	}
}

func (e *Engine) apply(msg resultMsg) {
	// Responses for anything but the live text are stale
	if msg.query != strings.TrimSpace(e.state.Query) {
		return
	}

	e.state.ActiveIndex = -1
	if msg.err != nil {
		log.Printf("suggest: fetch for %q failed: %v", msg.query, msg.err)
		e.state.Items = nil
		e.state.Open = false
		return
	}

	if e.cache != nil {
		e.cache.SetDefault(e.cacheKey(msg.query), msg.items)
	}
	e.state.Items = msg.items
	e.state.Open = len(msg.items) > 0 && !e.suppressed
}

// HandleKey applies popover navigation. handled is false when the key is
// not the engine's to consume and the host should process it.
func (e *Engine) HandleKey(msg tea.KeyMsg) (handled bool, cmd tea.Cmd) {
	n := len(e.state.Items)
	switch msg.Type {
	case tea.KeyDown:
		if n == 0 {
			return false, nil
		}
		e.state.Open = true
		e.suppressed = false
		e.state.ActiveIndex = (e.state.ActiveIndex + 1) % n
		return true, nil

	case tea.KeyUp:
		if n == 0 {
			return false, nil
		}
		e.state.Open = true
		e.suppressed = false
		if e.state.ActiveIndex <= 0 {
			e.state.ActiveIndex = n - 1
		} else {
			e.state.ActiveIndex--
		}
		return true, nil

	case tea.KeyEsc:
		if !e.state.Open {
			return false, nil
		}
		e.Dismiss()
		return true, nil

	case tea.KeyEnter:
		if chosen, ok := e.Active(); ok {
			return true, e.Submit(chosen)
		}
		return true, e.Submit(e.state.Query)
	}
	return false, nil
}

// Select commits the suggestion at index i (pointer selection)
func (e *Engine) Select(i int) tea.Cmd {
	if i < 0 || i >= len(e.state.Items) {
		return nil
	}
	return e.Submit(e.state.Items[i])
}

// Submit closes the popover and emits SubmitMsg for a non-blank value.
// The input takes the submitted text without triggering a new fetch.
func (e *Engine) Submit(value string) tea.Cmd {
	query := strings.TrimSpace(value)
	e.close()
	e.suppressed = true
	if query == "" {
		return nil
	}

	e.state.Query = query
	e.seq++
	return func() tea.Msg { return SubmitMsg{Query: query} }
}

// Dismiss closes the popover, keeping the query and items (Escape, focus loss)
func (e *Engine) Dismiss() {
	e.close()
	e.suppressed = true
}

// Reopen shows the popover again when there is something to show (input refocused)
func (e *Engine) Reopen() {
	e.suppressed = false
	if len(e.state.Items) > 0 {
		e.state.Open = true
	}
}

func (e *Engine) close() {
	e.state.Open = false
	e.state.ActiveIndex = -1
}
