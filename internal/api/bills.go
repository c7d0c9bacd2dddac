package api

import (
	"context"
	"strconv"

	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
)

// ListBills fetches a page of bills. Filters such as dueDateFrom and
// dueDateTo are sent to the search endpoint.
func (c *Client) ListBills(ctx context.Context, q listing.Query) (listing.Page[model.Bill], error) {
	return list[model.Bill](ctx, c, c.bankURL, "bills", q)
}

// GetBill fetches one bill.
func (c *Client) GetBill(ctx context.Context, id int) (model.Bill, error) {
	var bill model.Bill
	err := c.getJSON(ctx, c.bankURL+"/bills/"+strconv.Itoa(id), &bill)
	return bill, err
}

// CreateBill creates a bill.
func (c *Client) CreateBill(ctx context.Context, in model.NewBill) (model.Bill, error) {
	var bill model.Bill
	err := c.postJSON(ctx, c.bankURL+"/bills", in, &bill)
	return bill, err
}

// DeleteBill removes a bill.
func (c *Client) DeleteBill(ctx context.Context, id int) error {
	return c.deleteResource(ctx, c.bankURL+"/bills/"+strconv.Itoa(id))
}
