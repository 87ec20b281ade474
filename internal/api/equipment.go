package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"smartfind/internal/domain"
)

// Equipment fetches one item as seen by the current user
func (c *Client) Equipment(ctx context.Context, id int64) (*domain.Equipment, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/objects/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}

	o, ok := decodeObject(data)
	if !ok {
		return nil, fmt.Errorf("equipment %d: %w", id, ErrMalformedResponse)
	}
	if _, ok := o.Int("id"); !ok {
		return nil, fmt.Errorf("equipment %d: missing id: %w", id, ErrMalformedResponse)
	}
	return equipmentFrom(o), nil
}

func equipmentFrom(o object) *domain.Equipment {
	id, _ := o.Int("id")
	statusText := o.String("status")

	loc := o.Object("localisation")
	location := domain.Location{
		Building: loc.String("building"),
		Room:     loc.String("room"),
	}
	if floor, ok := loc.Int("floor"); ok {
		f := int(floor)
		location.Floor = &f
	}

	queue, _ := o.Int("queue_count")
	if queue < 0 {
		queue = 0
	}

	return &domain.Equipment{
		ID:                  id,
		Name:                o.String("name"),
		Type:                o.String("type"),
		Brand:               o.String("marque"),
		StatusText:          statusText,
		Status:              domain.ClassifyEquipmentStatus(statusText),
		Location:            location,
		Description:         o.String("description"),
		Features:            o.Strings("fonctionnalites"),
		QueueCount:          int(queue),
		ActiveReservationID: o.IntPtr("active_reservation_id"),
		MyReservationID:     o.IntPtr("my_reservation_id"),
		MyReservationStatus: domain.ParseReservationStatus(o.String("my_reservation_status")),
	}
}

// Queue fetches the waiting-line snapshot for one item
func (c *Client) Queue(ctx context.Context, id int64) (domain.QueueInfo, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/objects/%d/queue", id), nil, nil)
	if err != nil {
		return domain.QueueInfo{}, err
	}

	info := domain.QueueInfo{EquipmentID: id}
	if o, ok := decodeObject(data); ok {
		if n, ok := o.Int("waiting_count"); ok {
			info.WaitingCount = int(n)
			info.Known = true
		}
	}
	return info, nil
}

// Reserve asks for the item. The server either grants it or queues the
// caller; the returned text describes which.
func (c *Client) Reserve(ctx context.Context, equipmentID int64) (string, error) {
	body := map[string]int64{"object_id": equipmentID}
	data, err := c.do(ctx, http.MethodPost, "/reservations", nil, body)
	if err != nil {
		return "", err
	}
	return messageOf(data), nil
}

// CancelReservation withdraws a reservation by id
func (c *Client) CancelReservation(ctx context.Context, reservationID int64) (string, error) {
	data, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/reservations/%d", reservationID), nil, nil)
	if err != nil {
		return "", err
	}
	return messageOf(data), nil
}

// CancelReservationForEquipment withdraws the caller's open reservation on an item
func (c *Client) CancelReservationForEquipment(ctx context.Context, equipmentID int64) (string, error) {
	query := url.Values{"object_id": {strconv.FormatInt(equipmentID, 10)}}
	data, err := c.do(ctx, http.MethodDelete, "/reservations", query, nil)
	if err != nil {
		return "", err
	}
	return messageOf(data), nil
}

// CompleteReservation releases an active reservation
func (c *Client) CompleteReservation(ctx context.Context, reservationID int64) (string, error) {
	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/reservations/%d/complete", reservationID), nil, nil)
	if err != nil {
		return "", err
	}
	return messageOf(data), nil
}

func messageOf(data []byte) string {
	if o, ok := decodeObject(data); ok {
		return o.String("message")
	}
	return ""
}
