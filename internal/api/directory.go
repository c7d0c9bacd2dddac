package api

import (
	"context"

	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
)

// ListConsumers fetches a page of consumers.
func (c *Client) ListConsumers(ctx context.Context, q listing.Query) (listing.Page[model.Consumer], error) {
	return list[model.Consumer](ctx, c, c.bankURL, "consumers", q)
}

// CreateConsumer creates a consumer. The ID of in is ignored.
func (c *Client) CreateConsumer(ctx context.Context, in model.Consumer) (model.Consumer, error) {
	in.ID = 0
	var out model.Consumer
	err := c.postJSON(ctx, c.bankURL+"/consumers", in, &out)
	return out, err
}

// ListReceivers fetches a page of receivers.
func (c *Client) ListReceivers(ctx context.Context, q listing.Query) (listing.Page[model.Receiver], error) {
	return list[model.Receiver](ctx, c, c.bankURL, "receivers", q)
}

// CreateReceiver creates a receiver. The ID of in is ignored.
func (c *Client) CreateReceiver(ctx context.Context, in model.Receiver) (model.Receiver, error) {
	in.ID = 0
	var out model.Receiver
	err := c.postJSON(ctx, c.bankURL+"/receivers", in, &out)
	return out, err
}

// ListLocations fetches a page of locations.
func (c *Client) ListLocations(ctx context.Context, q listing.Query) (listing.Page[model.Location], error) {
	return list[model.Location](ctx, c, c.bankURL, "locations", q)
}

// CreateLocation creates a location. The ID of in is ignored.
func (c *Client) CreateLocation(ctx context.Context, in model.Location) (model.Location, error) {
	in.ID = 0
	var out model.Location
	err := c.postJSON(ctx, c.bankURL+"/locations", in, &out)
	return out, err
}
