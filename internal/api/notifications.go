package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
)

// ListNotifications fetches a page of the current user's notifications.
func (c *Client) ListNotifications(ctx context.Context, q listing.Query) (listing.Page[model.Notification], error) {
	return list[model.Notification](ctx, c, c.notificationURL, "notifications", q)
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	_, err := c.send(ctx, c.authed, http.MethodPatch,
		c.notificationURL+"/notifications/"+strconv.Itoa(id)+"/read", nil)
	return err
}
