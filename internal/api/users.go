package api

import (
	"context"
	"strconv"

	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
)

// ListUsers fetches a page of users.
func (c *Client) ListUsers(ctx context.Context, q listing.Query) (listing.Page[model.User], error) {
	return list[model.User](ctx, c, c.userURL, "users", q)
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id int) (model.User, error) {
	var user model.User
	err := c.getJSON(ctx, c.userURL+"/users/"+strconv.Itoa(id), &user)
	return user, err
}

// CreateUser creates a user and returns it as stored.
func (c *Client) CreateUser(ctx context.Context, in model.NewUser) (model.User, error) {
	var user model.User
	err := c.postJSON(ctx, c.userURL+"/users", in, &user)
	return user, err
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.deleteResource(ctx, c.userURL+"/users/"+strconv.Itoa(id))
}
