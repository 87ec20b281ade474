package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"smartfind/internal/domain"
)

// Notifications fetches the newest window of the user's notifications and the
// unread total across all of them
func (c *Client) Notifications(ctx context.Context, limit int) (domain.NotificationPage, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	data, err := c.do(ctx, http.MethodGet, "/users/me/notifications", query, nil)
	if err != nil {
		return domain.NotificationPage{}, err
	}

	o, ok := decodeObject(data)
	if !ok {
		return domain.NotificationPage{}, nil
	}

	page := domain.NotificationPage{UnreadCount: unreadOf(o)}
	for _, item := range o.Objects("items") {
		id, ok := item.Int("id_notification")
		if !ok {
			continue
		}
		page.Items = append(page.Items, domain.Notification{
			ID:                id,
			Type:              domain.ParseNotificationType(item.String("type_notification")),
			Message:           item.String("message"),
			Timestamp:         item.Time("date_notification"),
			Read:              item.Bool("est_lu"),
			TargetEquipmentID: item.IntPtr("id_objet"),
		})
	}
	return page, nil
}

// MarkNotificationRead flags one notification and returns the new unread total
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) (int, error) {
	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/me/notifications/%d/read", id), nil, nil)
	if err != nil {
		return 0, err
	}
	o, _ := decodeObject(data)
	return unreadOf(o), nil
}

// MarkAllNotificationsRead flags every notification of the user
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/users/me/notifications/read-all", nil, nil)
	return err
}

func unreadOf(o object) int {
	n, _ := o.Int("unread_count")
	if n < 0 {
		return 0
	}
	return int(n)
}
