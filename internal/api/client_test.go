package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfind/internal/config"
	"smartfind/internal/domain"
	"smartfind/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Server
	cfg.BaseURL = srv.URL + "/"
	sess := session.New(nil)
	require.NoError(t, sess.Start("opaque-token"))
	return New(cfg, sess), sess
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestDo_Headers(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, 200, `{"waiting_count": 3}`)
	})

	_, err := c.Queue(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, "Bearer opaque-token", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestEquipment_Normalizes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/objects/7", r.URL.Path)
		writeJSON(w, 200, `{
			"id": 7,
			"name": "Epson EB-X41",
			"type": "Projector",
			"marque": "Epson",
			"status": "Disponible",
			"localisation": {"building": "B", "floor": "2", "room": "B204"},
			"fonctionnalites": ["HDMI", "", null, 3],
			"queue_count": -4,
			"active_reservation_id": null,
			"my_reservation_id": "15",
			"my_reservation_status": "waiting"
		}`)
	})

	eq, err := c.Equipment(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), eq.ID)
	assert.Equal(t, "Epson", eq.Brand)
	assert.Equal(t, domain.EquipmentFree, eq.Status)
	require.NotNil(t, eq.Location.Floor)
	assert.Equal(t, 2, *eq.Location.Floor)
	assert.Equal(t, []string{"HDMI"}, eq.Features)
	assert.Equal(t, 0, eq.QueueCount)
	assert.Nil(t, eq.ActiveReservationID)
	require.NotNil(t, eq.MyReservationID)
	assert.Equal(t, int64(15), *eq.MyReservationID)
	assert.Equal(t, domain.ReservationWaiting, eq.MyReservationStatus)
}

func TestEquipment_Malformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `["not", "an", "object"]`)
	})

	_, err := c.Equipment(context.Background(), 7)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestEquipment_NotFoundCarriesDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"detail": "Objet introuvable"}`)
	})

	_, err := c.Equipment(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, 404, StatusOf(err))
	assert.Equal(t, "Objet introuvable", DetailOr(err, "fallback"))
	assert.False(t, IsTransport(err))
}

func TestDo_NonStringDetailFallsBack(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, `{"detail": [{"loc": ["body"], "msg": "field required"}]}`)
	})

	_, err := c.Reserve(context.Background(), 1)
	assert.Equal(t, "Could not reserve", DetailOr(err, "Could not reserve"))
}

func TestDo_UnauthorizedExpiresSession(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{"detail": "Could not validate credentials"}`)
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.False(t, sess.Active())
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := config.DefaultConfig().Server
	cfg.BaseURL = srv.URL
	c := New(cfg, nil)

	_, err := c.Queue(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, "fallback", DetailOr(err, "fallback"))
}

func TestDo_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, 200, `{}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Queue(ctx, 1)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestQueue_UnknownWaitingCount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"waiting_count": "lots"}`)
	})

	info, err := c.Queue(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, info.Known)
}

func TestReservationRoutes(t *testing.T) {
	type call struct{ method, path, query, body string }
	var calls []call
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery, string(b)})
		writeJSON(w, 200, `{"message": "ok"}`)
	})
	ctx := context.Background()

	msg, err := c.Reserve(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)
	_, err = c.CancelReservation(ctx, 11)
	require.NoError(t, err)
	_, err = c.CancelReservationForEquipment(ctx, 3)
	require.NoError(t, err)
	_, err = c.CompleteReservation(ctx, 12)
	require.NoError(t, err)

	require.Len(t, calls, 4)
	assert.Equal(t, "POST", calls[0].method)
	assert.Equal(t, "/reservations", calls[0].path)
	var body map[string]int64
	require.NoError(t, json.Unmarshal([]byte(calls[0].body), &body))
	assert.Equal(t, int64(3), body["object_id"])

	assert.Equal(t, call{"DELETE", "/reservations/11", "", ""}, calls[1])
	assert.Equal(t, call{"DELETE", "/reservations", "object_id=3", ""}, calls[2])
	assert.Equal(t, call{"POST", "/reservations/12/complete", "", ""}, calls[3])
}

func TestNotifications_Normalizes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("limit"))
		writeJSON(w, 200, `{
			"items": [
				{"id_notification": 5, "message": "Your turn", "type_notification": "TURN_READY",
				 "est_lu": false, "date_notification": "2026-03-01T10:00:00", "id_objet": 7},
				{"message": "no id, dropped"},
				{"id_notification": "4", "type_notification": "weird", "est_lu": 1,
				 "date_notification": "garbage"}
			],
			"unread_count": 3
		}`)
	})

	page, err := c.Notifications(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, 3, page.UnreadCount)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, domain.NotificationTurnReady, first.Type)
	assert.False(t, first.Read)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), first.Timestamp)
	require.NotNil(t, first.TargetEquipmentID)
	assert.Equal(t, int64(7), *first.TargetEquipmentID)

	second := page.Items[1]
	assert.Equal(t, int64(4), second.ID)
	assert.Equal(t, domain.NotificationInfo, second.Type)
	assert.True(t, second.Read)
	assert.True(t, second.Timestamp.IsZero())
	assert.Nil(t, second.TargetEquipmentID)
}

func TestNotifications_MalformedBodyIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `not json`)
	})

	page, err := c.Notifications(context.Background(), 12)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.UnreadCount)
}

func TestMarkNotificationRead(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/notifications/5/read", r.URL.Path)
		writeJSON(w, 200, `{"message": "ok", "unread_count": 2}`)
	})

	unread, err := c.MarkNotificationRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestSuggestAndSearch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/suggest":
			assert.Equal(t, "proj", r.URL.Query().Get("q"))
			assert.Equal(t, "8", r.URL.Query().Get("limit"))
			writeJSON(w, 200, `{"suggestions": ["Projector", " ", "Projector Epson"]}`)
		case "/search":
			writeJSON(w, 200, `[{"id_objet": 7, "nom_model": "EB-X41", "statut": "Panne", "id_salle": 12}, {"nom_model": "no id"}]`)
		default:
			w.WriteHeader(404)
		}
	})
	ctx := context.Background()

	sugg, err := c.Suggest(ctx, "proj", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Projector", "Projector Epson"}, sugg)

	results, err := c.Search(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.EquipmentBroken, results[0].Status)
	assert.Equal(t, "12", results[0].Room)
}

func TestMe(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"id_utilisateur": 1, "email": "a@b.c", "nom": "Lovelace", "prenom": "Ada", "role": "student"}`)
	})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.DisplayName())
	assert.Equal(t, "student", u.Role)
}
