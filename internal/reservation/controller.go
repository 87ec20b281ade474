package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"smartfind/internal/api"
	"smartfind/internal/domain"
)

// ErrMissingReservationID means the view claims an active reservation but
// the server never told us its id
var ErrMissingReservationID = errors.New("active reservation has no id")

// API is the slice of the server the controller needs
type API interface {
	Equipment(ctx context.Context, id int64) (*domain.Equipment, error)
	Queue(ctx context.Context, id int64) (domain.QueueInfo, error)
	Reserve(ctx context.Context, equipmentID int64) (string, error)
	CancelReservation(ctx context.Context, reservationID int64) (string, error)
	CancelReservationForEquipment(ctx context.Context, equipmentID int64) (string, error)
	CompleteReservation(ctx context.Context, reservationID int64) (string, error)
}

// Action names a user-triggered reservation mutation
type Action int

const (
	ActionReserve Action = iota
	ActionCancel
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionReserve:
		return "reserve"
	case ActionCancel:
		return "cancel"
	case ActionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var (
	successText = map[Action]string{
		ActionReserve:  "Reservation request handled.",
		ActionCancel:   "Reservation cancelled.",
		ActionComplete: "Reservation completed.",
	}
	failureText = map[Action]string{
		ActionReserve:  "Could not reserve this equipment.",
		ActionCancel:   "Could not cancel the reservation.",
		ActionComplete: "Could not complete the reservation.",
	}
)

const notFoundText = "Equipment not found."

// FeedbackKind distinguishes inline feedback
type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	FeedbackSuccess
	FeedbackError
)

// Feedback is the inline, dismissible outcome of the last action
type Feedback struct {
	Kind FeedbackKind
	Text string
}

// State is what the equipment view renders
type State struct {
	EquipmentID int64
	Equipment   *domain.Equipment // nil while loading or after a failed load
	QueueCount  int
	Loading     bool
	LoadError   string
	Busy        bool // an action or its follow-up reload is in flight
	Feedback    Feedback
}

type loadedMsg struct {
	controller uint64
	seq        uint64
	equipment  *domain.Equipment
	queue      domain.QueueInfo
	err        error
}

type actionDoneMsg struct {
	controller uint64
	action     Action
	message    string
	err        error
}

var controllerIDs atomic.Uint64

// Controller owns the reservation state of one displayed equipment item.
// Methods must be called from the bubbletea update loop.
type Controller struct {
	api     API
	timeout time.Duration
	id      uint64
	state   State

	loadSeq         uint64
	reloadForAction bool
}

// New creates a controller for one equipment view. Navigating to another
// item means creating another controller; results addressed to the old one
// are then ignored.
func New(api API, equipmentID int64, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		api:     api,
		timeout: timeout,
		id:      controllerIDs.Add(1),
		state:   State{EquipmentID: equipmentID},
	}
}

// State returns a snapshot for rendering
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) EquipmentID() int64 {
	return c.state.EquipmentID
}

// Init performs the first load
func (c *Controller) Init() tea.Cmd {
	return c.Reload()
}

// Reload refetches the details and the queue snapshot together
func (c *Controller) Reload() tea.Cmd {
	c.state.Loading = true
	c.loadSeq++
	return c.load(c.loadSeq)
}

func (c *Controller) load(seq uint64) tea.Cmd {
	id, equipmentID, timeout, client := c.id, c.state.EquipmentID, c.timeout, c.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			equipment *domain.Equipment
			queue     domain.QueueInfo
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			equipment, err = client.Equipment(gctx, equipmentID)
			if err != nil {
				return fmt.Errorf("load equipment %d: %w", equipmentID, err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			queue, err = client.Queue(gctx, equipmentID)
			if err != nil {
				return fmt.Errorf("load queue %d: %w", equipmentID, err)
			}
			return nil
		})
		err := g.Wait()
		return loadedMsg{controller: id, seq: seq, equipment: equipment, queue: queue, err: err}
	}
}

// CanReserve reports whether Reserve would send a request
func (c *Controller) CanReserve() bool {
	eq := c.state.Equipment
	return c.ready() && !eq.HasReservation() && !eq.IsBroken()
}

// CanCancel reports whether Cancel would send a request
func (c *Controller) CanCancel() bool {
	return c.ready() && c.state.Equipment.MyReservationStatus == domain.ReservationWaiting
}

// CanComplete reports whether Complete applies to the current state
func (c *Controller) CanComplete() bool {
	return c.ready() && c.state.Equipment.MyReservationStatus == domain.ReservationActive
}

func (c *Controller) ready() bool {
	return !c.state.Busy && !c.state.Loading && c.state.Equipment != nil
}

// Reserve asks for the item; the server grants it or queues the user
func (c *Controller) Reserve() tea.Cmd {
	if !c.CanReserve() {
		return nil
	}
	equipmentID := c.state.EquipmentID
	return c.run(ActionReserve, func(ctx context.Context) (string, error) {
		return c.api.Reserve(ctx, equipmentID)
	})
}

// Cancel leaves the waiting line
func (c *Controller) Cancel() tea.Cmd {
	if !c.CanCancel() {
		return nil
	}
	eq := c.state.Equipment
	if eq.MyReservationID != nil {
		reservationID := *eq.MyReservationID
		return c.run(ActionCancel, func(ctx context.Context) (string, error) {
			return c.api.CancelReservation(ctx, reservationID)
		})
	}
	equipmentID := c.state.EquipmentID
	return c.run(ActionCancel, func(ctx context.Context) (string, error) {
		return c.api.CancelReservationForEquipment(ctx, equipmentID)
	})
}

// Complete releases the item the user is holding
func (c *Controller) Complete() tea.Cmd {
	if !c.CanComplete() {
		return nil
	}
	eq := c.state.Equipment
	if eq.MyReservationID == nil {
		log.Printf("reservation: equipment %d is ACTIVE without a reservation id", eq.ID)
		c.state.Feedback = Feedback{
			Kind: FeedbackError,
			Text: fmt.Sprintf("%s (%v)", failureText[ActionComplete], ErrMissingReservationID),
		}
		return nil
	}
	reservationID := *eq.MyReservationID
	return c.run(ActionComplete, func(ctx context.Context) (string, error) {
		return c.api.CompleteReservation(ctx, reservationID)
	})
}

func (c *Controller) run(action Action, call func(ctx context.Context) (string, error)) tea.Cmd {
	c.state.Busy = true
	c.state.Feedback = Feedback{}
	id, timeout := c.id, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		message, err := call(ctx)
		return actionDoneMsg{controller: id, action: action, message: message, err: err}
	}
}

// DismissFeedback clears the inline message
func (c *Controller) DismissFeedback() {
	c.state.Feedback = Feedback{}
}

// Update consumes the controller's own messages
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		// Only the newest load is authoritative
		if msg.controller != c.id || msg.seq != c.loadSeq {
			return nil
		}
		c.applyLoad(msg)

	case actionDoneMsg:
		if msg.controller != c.id {
			return nil
		}
		if msg.err != nil {
			log.Printf("reservation: %s on equipment %d failed: %v", msg.action, c.state.EquipmentID, msg.err)
			c.state.Busy = false
			c.state.Feedback = Feedback{Kind: FeedbackError, Text: api.DetailOr(msg.err, failureText[msg.action])}
			return nil
		}
		text := msg.message
		if text == "" {
			text = successText[msg.action]
		}
		c.state.Feedback = Feedback{Kind: FeedbackSuccess, Text: text}
		// Busy stays set until the reload lands
		c.reloadForAction = true
		return c.Reload()
	}
	return nil
}

func (c *Controller) applyLoad(msg loadedMsg) {
	c.state.Loading = false
	if c.reloadForAction {
		c.state.Busy = false
		c.reloadForAction = false
	}

	if msg.err != nil || msg.equipment == nil {
		if msg.err != nil {
			log.Printf("reservation: %v", msg.err)
		}
		c.state.Equipment = nil
		c.state.QueueCount = 0
		c.state.LoadError = api.DetailOr(msg.err, notFoundText)
		return
	}

	c.state.Equipment = msg.equipment
	c.state.LoadError = ""

	count := msg.equipment.QueueCount
	if msg.queue.Known {
		count = msg.queue.WaitingCount
	}
	if count < 0 {
		count = 0
	}
	c.state.QueueCount = count
}
