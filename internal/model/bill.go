package model

import (
	"fmt"
	"time"
)

// Bill is a payable tracked by the bank service.
type Bill struct {
	DueDate    time.Time  `json:"dueDate" yaml:"dueDate"`
	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt"`
	PaidAt     *time.Time `json:"paidAt,omitempty" yaml:"paidAt,omitempty"`
	Title      string     `json:"title" yaml:"title"`
	Currency   string     `json:"currency" yaml:"currency"`
	Amount     float64    `json:"amount" yaml:"amount"`
	ID         int        `json:"id" yaml:"id"`
	ConsumerID int        `json:"consumerId" yaml:"consumerId"`
	ReceiverID int        `json:"receiverId" yaml:"receiverId"`
	LocationID int        `json:"locationId,omitempty" yaml:"locationId,omitempty"`
	Paid       bool       `json:"paid" yaml:"paid"`
}

// FormattedAmount renders the amount with its currency code.
func (b Bill) FormattedAmount() string {
	currency := b.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", b.Amount, currency)
}

// Overdue reports whether the bill is unpaid past its due date.
func (b Bill) Overdue(now time.Time) bool {
	return !b.Paid && !b.DueDate.IsZero() && now.After(b.DueDate)
}

// NewBill is the payload for creating a bill.
type NewBill struct {
	DueDate    time.Time `json:"dueDate"`
	Title      string    `json:"title"`
	Currency   string    `json:"currency"`
	Amount     float64   `json:"amount"`
	ConsumerID int       `json:"consumerId"`
	ReceiverID int       `json:"receiverId"`
	LocationID int       `json:"locationId,omitempty"`
}
