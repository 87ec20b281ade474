package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfind/internal/api"
	"smartfind/internal/domain"
)

type fakeAPI struct {
	mu        sync.Mutex
	equipment *domain.Equipment
	queue     domain.QueueInfo
	loadErr   error
	queueErr  error

	actionMsg string
	actionErr error
	calls     []string
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Equipment(_ context.Context, id int64) (*domain.Equipment, error) {
	f.record("equipment")
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	cp := *f.equipment
	return &cp, nil
}

func (f *fakeAPI) Queue(_ context.Context, id int64) (domain.QueueInfo, error) {
	f.record("queue")
	return f.queue, f.queueErr
}

func (f *fakeAPI) Reserve(_ context.Context, equipmentID int64) (string, error) {
	f.record("reserve")
	return f.actionMsg, f.actionErr
}

func (f *fakeAPI) CancelReservation(_ context.Context, reservationID int64) (string, error) {
	f.record("cancel-by-id")
	return f.actionMsg, f.actionErr
}

func (f *fakeAPI) CancelReservationForEquipment(_ context.Context, equipmentID int64) (string, error) {
	f.record("cancel-by-equipment")
	return f.actionMsg, f.actionErr
}

func (f *fakeAPI) CompleteReservation(_ context.Context, reservationID int64) (string, error) {
	f.record("complete")
	return f.actionMsg, f.actionErr
}

func (f *fakeAPI) actionCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c != "equipment" && c != "queue" {
			out = append(out, c)
		}
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func free() *domain.Equipment {
	return &domain.Equipment{ID: 7, Name: "Projector", StatusText: "Disponible", Status: domain.EquipmentFree,
		MyReservationStatus: domain.ReservationNone}
}

// drive runs a command chain to completion, feeding each message back into the controller
func drive(c *Controller, cmd tea.Cmd) {
	for cmd != nil {
		cmd = c.Update(cmd())
	}
}

func loaded(t *testing.T, f *fakeAPI) *Controller {
	t.Helper()
	c := New(f, 7, 0)
	drive(c, c.Init())
	require.NotNil(t, c.State().Equipment)
	return c
}

func TestInit_LoadsDetailsAndQueue(t *testing.T) {
	f := &fakeAPI{equipment: free(), queue: domain.QueueInfo{WaitingCount: 3, Known: true}}
	c := New(f, 7, 0)

	cmd := c.Init()
	assert.True(t, c.State().Loading)
	drive(c, cmd)

	s := c.State()
	assert.False(t, s.Loading)
	assert.Equal(t, 3, s.QueueCount)
	assert.Empty(t, s.LoadError)
	assert.True(t, c.CanReserve())
}

func TestQueueCountFallsBackToDetails(t *testing.T) {
	eq := free()
	eq.QueueCount = 2
	c := loaded(t, &fakeAPI{equipment: eq, queue: domain.QueueInfo{Known: false}})
	assert.Equal(t, 2, c.State().QueueCount)
}

func TestQueueCountClampedAtZero(t *testing.T) {
	c := loaded(t, &fakeAPI{equipment: free(), queue: domain.QueueInfo{WaitingCount: -5, Known: true}})
	assert.Equal(t, 0, c.State().QueueCount)
}

func TestLoadFailure_EitherCallFailing(t *testing.T) {
	notFound := &api.Error{Status: 404, Detail: "Objet introuvable"}
	for name, f := range map[string]*fakeAPI{
		"details": {loadErr: notFound},
		"queue":   {equipment: free(), queueErr: errors.New("network down")},
	} {
		t.Run(name, func(t *testing.T) {
			c := New(f, 7, 0)
			drive(c, c.Init())

			s := c.State()
			assert.Nil(t, s.Equipment)
			assert.Equal(t, 0, s.QueueCount)
			assert.NotEmpty(t, s.LoadError)
			assert.False(t, c.CanReserve())
			assert.Nil(t, c.Reserve())
		})
	}
}

func TestLoadFailure_UsesServerDetail(t *testing.T) {
	c := New(&fakeAPI{loadErr: &api.Error{Status: 404, Detail: "Objet introuvable"}}, 7, 0)
	drive(c, c.Init())
	assert.Equal(t, "Objet introuvable", c.State().LoadError)

	c = New(&fakeAPI{loadErr: &api.Error{Err: errors.New("dial tcp")}}, 7, 0)
	drive(c, c.Init())
	assert.Equal(t, "Equipment not found.", c.State().LoadError)
}

func TestReserve_SuccessReloads(t *testing.T) {
	f := &fakeAPI{equipment: free(), queue: domain.QueueInfo{Known: true}, actionMsg: "Vous êtes dans la file."}
	c := loaded(t, f)

	cmd := c.Reserve()
	require.NotNil(t, cmd)
	assert.True(t, c.State().Busy)
	assert.False(t, c.CanReserve())

	// Server now reports the user queued
	f.equipment.MyReservationStatus = domain.ReservationWaiting
	f.equipment.MyReservationID = ptr(11)
	f.queue = domain.QueueInfo{WaitingCount: 1, Known: true}

	reload := c.Update(cmd())
	require.NotNil(t, reload)
	s := c.State()
	assert.True(t, s.Busy, "busy until the reload lands")
	assert.Equal(t, FeedbackSuccess, s.Feedback.Kind)
	assert.Equal(t, "Vous êtes dans la file.", s.Feedback.Text)
	assert.Nil(t, c.Cancel(), "triggers disabled while reloading")

	drive(c, reload)
	s = c.State()
	assert.False(t, s.Busy)
	assert.Equal(t, domain.ReservationWaiting, s.Equipment.MyReservationStatus)
	assert.Equal(t, 1, s.QueueCount)
	assert.True(t, c.CanCancel())
}

func TestReserve_SuccessWithoutMessageUsesFallback(t *testing.T) {
	c := loaded(t, &fakeAPI{equipment: free()})
	drive(c, c.Reserve())
	assert.Equal(t, "Reservation request handled.", c.State().Feedback.Text)
}

func TestReserve_FailureKeepsView(t *testing.T) {
	f := &fakeAPI{equipment: free(), actionErr: &api.Error{Status: 400, Detail: "Vous avez déjà une réservation."}}
	c := loaded(t, f)
	before := c.State().Equipment

	drive(c, c.Reserve())

	s := c.State()
	assert.False(t, s.Busy)
	assert.Equal(t, FeedbackError, s.Feedback.Kind)
	assert.Equal(t, "Vous avez déjà une réservation.", s.Feedback.Text)
	assert.Same(t, before, s.Equipment)
	assert.Equal(t, []string{"reserve"}, f.actionCalls())
}

func TestReserve_TransportFailureFallback(t *testing.T) {
	f := &fakeAPI{equipment: free(), actionErr: &api.Error{Err: errors.New("connection refused")}}
	c := loaded(t, f)
	drive(c, c.Reserve())
	assert.Equal(t, "Could not reserve this equipment.", c.State().Feedback.Text)
}

func TestReserve_Preconditions(t *testing.T) {
	broken := free()
	broken.StatusText = "Panne"
	broken.Status = domain.EquipmentBroken

	waiting := free()
	waiting.MyReservationStatus = domain.ReservationWaiting

	active := free()
	active.MyReservationStatus = domain.ReservationActive

	for name, eq := range map[string]*domain.Equipment{"broken": broken, "waiting": waiting, "active": active} {
		t.Run(name, func(t *testing.T) {
			f := &fakeAPI{equipment: eq}
			c := loaded(t, f)
			assert.Nil(t, c.Reserve())
			assert.Empty(t, f.actionCalls())
		})
	}
}

func TestSingleFlight_SecondTriggerIgnored(t *testing.T) {
	f := &fakeAPI{equipment: free()}
	c := loaded(t, f)

	first := c.Reserve()
	require.NotNil(t, first)
	assert.Nil(t, c.Reserve())
	assert.Nil(t, c.Cancel())
	assert.Nil(t, c.Complete())

	drive(c, first)
	assert.Equal(t, []string{"reserve"}, f.actionCalls())
}

func TestManualReloadDoesNotReleaseInFlightAction(t *testing.T) {
	f := &fakeAPI{equipment: free()}
	c := loaded(t, f)

	action := c.Reserve()
	require.NotNil(t, action)
	drive(c, c.Reload())

	assert.True(t, c.State().Busy)
	assert.Nil(t, c.Reserve())

	drive(c, action)
	assert.False(t, c.State().Busy)
}

func TestCancel_ByReservationID(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationWaiting
	eq.MyReservationID = ptr(11)
	f := &fakeAPI{equipment: eq}
	c := loaded(t, f)

	drive(c, c.Cancel())
	assert.Equal(t, []string{"cancel-by-id"}, f.actionCalls())
	assert.Equal(t, "Reservation cancelled.", c.State().Feedback.Text)
}

func TestCancel_ByEquipmentWhenIDUnknown(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationWaiting
	f := &fakeAPI{equipment: eq}
	c := loaded(t, f)

	drive(c, c.Cancel())
	assert.Equal(t, []string{"cancel-by-equipment"}, f.actionCalls())
}

func TestCancel_OnlyFromWaiting(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationActive
	eq.MyReservationID = ptr(3)
	c := loaded(t, &fakeAPI{equipment: eq})
	assert.Nil(t, c.Cancel())
}

func TestCancel_FailureLeavesState(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationWaiting
	eq.MyReservationID = ptr(11)
	c := loaded(t, &fakeAPI{equipment: eq, actionErr: &api.Error{Status: 500}})

	drive(c, c.Cancel())
	s := c.State()
	assert.Equal(t, "Could not cancel the reservation.", s.Feedback.Text)
	assert.Equal(t, domain.ReservationWaiting, s.Equipment.MyReservationStatus)
	assert.True(t, c.CanCancel())
}

func TestComplete_Success(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationActive
	eq.MyReservationID = ptr(12)
	f := &fakeAPI{equipment: eq}
	c := loaded(t, f)

	cmd := c.Complete()
	require.NotNil(t, cmd)
	f.equipment.MyReservationStatus = domain.ReservationNone
	f.equipment.MyReservationID = nil
	drive(c, cmd)

	assert.Equal(t, []string{"complete"}, f.actionCalls())
	assert.Equal(t, domain.ReservationNone, c.State().Equipment.MyReservationStatus)
	assert.True(t, c.CanReserve())
}

func TestComplete_MissingIDIsLocalError(t *testing.T) {
	eq := free()
	eq.MyReservationStatus = domain.ReservationActive
	f := &fakeAPI{equipment: eq}
	c := loaded(t, f)

	assert.Nil(t, c.Complete())
	s := c.State()
	assert.Equal(t, FeedbackError, s.Feedback.Kind)
	assert.Contains(t, s.Feedback.Text, ErrMissingReservationID.Error())
	assert.False(t, s.Busy)
	assert.Empty(t, f.actionCalls())
}

func TestDismissFeedback(t *testing.T) {
	c := loaded(t, &fakeAPI{equipment: free(), actionErr: errors.New("x")})
	drive(c, c.Reserve())
	require.Equal(t, FeedbackError, c.State().Feedback.Kind)

	c.DismissFeedback()
	assert.Equal(t, Feedback{}, c.State().Feedback)
}

func TestMessagesForPreviousViewIgnored(t *testing.T) {
	f := &fakeAPI{equipment: free()}
	old := loaded(t, f)
	pending := old.Reserve()

	next := New(f, 8, 0)
	next.Init()
	assert.Nil(t, next.Update(pending()))
	assert.Equal(t, Feedback{}, next.State().Feedback)
	assert.True(t, next.State().Loading)
}

func TestScenario_ReserveFreeThenComplete(t *testing.T) {
	f := &fakeAPI{equipment: free(), queue: domain.QueueInfo{Known: true}}
	c := loaded(t, f)

	f.equipment.MyReservationStatus = domain.ReservationActive
	f.equipment.MyReservationID = ptr(21)
	drive(c, c.Reserve())
	assert.Equal(t, domain.ReservationActive, c.State().Equipment.MyReservationStatus)
	assert.True(t, c.CanComplete())

	f.equipment.MyReservationStatus = domain.ReservationNone
	f.equipment.MyReservationID = nil
	drive(c, c.Complete())

	s := c.State()
	assert.Equal(t, domain.ReservationNone, s.Equipment.MyReservationStatus)
	assert.Equal(t, 0, s.QueueCount)
	assert.Equal(t, []string{"reserve", "complete"}, f.actionCalls())
}

func TestScenario_QueueBehindAnotherUserThenCancel(t *testing.T) {
	eq := free()
	eq.StatusText = "Réservé"
	eq.Status = domain.EquipmentOther
	eq.ActiveReservationID = ptr(3)
	f := &fakeAPI{equipment: eq, queue: domain.QueueInfo{Known: true}}
	c := loaded(t, f)

	f.equipment.MyReservationStatus = domain.ReservationWaiting
	f.queue = domain.QueueInfo{WaitingCount: 1, Known: true}
	drive(c, c.Reserve())
	s := c.State()
	assert.Equal(t, domain.ReservationWaiting, s.Equipment.MyReservationStatus)
	assert.GreaterOrEqual(t, s.QueueCount, 1)

	f.equipment.MyReservationStatus = domain.ReservationNone
	f.queue = domain.QueueInfo{WaitingCount: 0, Known: true}
	drive(c, c.Cancel())
	assert.Equal(t, domain.ReservationNone, c.State().Equipment.MyReservationStatus)
	assert.Equal(t, []string{"reserve", "cancel-by-equipment"}, f.actionCalls())
}

func TestStatusComesFromReloadNotFromAction(t *testing.T) {
	f := &fakeAPI{equipment: free(), actionMsg: "ok"}
	c := loaded(t, f)

	// The server accepted the call but the reload still reports no reservation
	drive(c, c.Reserve())
	assert.Equal(t, domain.ReservationNone, c.State().Equipment.MyReservationStatus)
}

func TestReserve_ZeroValueSnapshotIsReservable(t *testing.T) {
	f := &fakeAPI{equipment: &domain.Equipment{ID: 7, Status: domain.EquipmentFree}}
	c := loaded(t, f)

	assert.True(t, c.CanReserve())
	assert.False(t, c.CanCancel())
	assert.False(t, c.CanComplete())
	drive(c, c.Reserve())
	assert.Equal(t, []string{"reserve"}, f.actionCalls())
}
