package cli

import (
	"strconv"
	"time"

	"github.com/Veraticus/bankctl/internal/model"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optionalID(id int) string {
	if id == 0 {
		return "-"
	}
	return strconv.Itoa(id)
}

// UserColumns lays out users.
func UserColumns() []Column[model.User] {
	return []Column[model.User]{
		{Title: "ID", Width: 6, Value: func(u model.User) string { return strconv.Itoa(u.ID) }},
		{Title: "Username", Width: 20, Value: func(u model.User) string { return u.Username }},
		{Title: "Name", Width: 24, Value: model.User.FullName},
		{Title: "Email", Width: 30, Value: func(u model.User) string { return u.Email }},
		{Title: "Role", Width: 10, Value: func(u model.User) string { return string(u.Role) }},
		{Title: "Active", Width: 6, Value: func(u model.User) string { return yesNo(u.Active) }},
	}
}

// BillColumns lays out bills. now decides which unpaid bills are overdue.
func BillColumns(now time.Time) []Column[model.Bill] {
	return []Column[model.Bill]{
		{Title: "ID", Width: 6, Value: func(b model.Bill) string { return strconv.Itoa(b.ID) }},
		{Title: "Title", Width: 28, Value: func(b model.Bill) string { return b.Title }},
		{Title: "Amount", Width: 16, Value: model.Bill.FormattedAmount},
		{Title: "Due", Width: 10, Value: func(b model.Bill) string { return formatDate(b.DueDate) }},
		{Title: "Status", Width: 8, Value: func(b model.Bill) string {
			switch {
			case b.Paid:
				return "paid"
			case b.Overdue(now):
				return "overdue"
			default:
				return "open"
			}
		}},
		{Title: "Consumer", Width: 8, Value: func(b model.Bill) string { return optionalID(b.ConsumerID) }},
		{Title: "Receiver", Width: 8, Value: func(b model.Bill) string { return optionalID(b.ReceiverID) }},
	}
}

// ConsumerColumns lays out consumers.
func ConsumerColumns() []Column[model.Consumer] {
	return []Column[model.Consumer]{
		{Title: "ID", Width: 6, Value: func(c model.Consumer) string { return strconv.Itoa(c.ID) }},
		{Title: "Name", Width: 24, Value: func(c model.Consumer) string { return c.Name }},
		{Title: "Email", Width: 30, Value: func(c model.Consumer) string { return c.Email }},
		{Title: "Phone", Width: 16, Value: func(c model.Consumer) string { return c.Phone }},
		{Title: "Location", Width: 8, Value: func(c model.Consumer) string { return optionalID(c.LocationID) }},
	}
}

// ReceiverColumns lays out receivers.
func ReceiverColumns() []Column[model.Receiver] {
	return []Column[model.Receiver]{
		{Title: "ID", Width: 6, Value: func(r model.Receiver) string { return strconv.Itoa(r.ID) }},
		{Title: "Name", Width: 24, Value: func(r model.Receiver) string { return r.Name }},
		{Title: "Bank", Width: 20, Value: func(r model.Receiver) string { return r.BankName }},
		{Title: "Account", Width: 20, Value: func(r model.Receiver) string { return r.AccountNumber }},
	}
}

// LocationColumns lays out locations.
func LocationColumns() []Column[model.Location] {
	return []Column[model.Location]{
		{Title: "ID", Width: 6, Value: func(l model.Location) string { return strconv.Itoa(l.ID) }},
		{Title: "Name", Width: 24, Value: func(l model.Location) string { return l.Name }},
		{Title: "Address", Width: 30, Value: func(l model.Location) string { return l.Address }},
		{Title: "City", Width: 16, Value: func(l model.Location) string { return l.City }},
		{Title: "Country", Width: 12, Value: func(l model.Location) string { return l.Country }},
	}
}

// NotificationColumns lays out notifications.
func NotificationColumns() []Column[model.Notification] {
	return []Column[model.Notification]{
		{Title: "ID", Width: 6, Value: func(n model.Notification) string { return strconv.Itoa(n.ID) }},
		{Title: "Date", Width: 10, Value: func(n model.Notification) string { return formatDate(n.CreatedAt) }},
		{Title: "Title", Width: 28, Value: func(n model.Notification) string { return n.Title }},
		{Title: "Message", Width: 40, Value: func(n model.Notification) string { return n.Message }},
		{Title: "Read", Width: 4, Value: func(n model.Notification) string { return yesNo(n.Read) }},
	}
}
