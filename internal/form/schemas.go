package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/bankctl/internal/model"
)

// Form names, also used as cache keys.
const (
	NameUser     = "user"
	NameBill     = "bill"
	NameConsumer = "consumer"
	NameReceiver = "receiver"
	NameLocation = "location"
)

// DateLayout is the accepted date format.
const DateLayout = "2006-01-02"

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// UserSchema describes the create-user form.
func UserSchema() Schema {
	return Schema{
		"username":  {Validators: []Validator{Required(), MinLength(3), MaxLength(32), Pattern(`^[a-zA-Z0-9_.-]+$`, "may only contain letters, digits, dot, dash and underscore")}},
		"email":     {Validators: []Validator{Required(), Email()}},
		"password":  {Validators: []Validator{Required(), MinLength(8)}},
		"firstName": {Validators: []Validator{MaxLength(64)}},
		"lastName":  {Validators: []Validator{MaxLength(64)}},
		"role": {
			Default:    string(model.RoleViewer),
			Validators: []Validator{Required(), OneOf(string(model.RoleAdmin), string(model.RoleOperator), string(model.RoleViewer))},
			Cacheable:  true,
		},
	}
}

// BillSchema describes the create-bill form.
func BillSchema() Schema {
	return Schema{
		"title":      {Validators: []Validator{Required(), MaxLength(120)}},
		"amount":     {Validators: []Validator{Required(), Positive()}},
		"currency":   {Default: "USD", Validators: []Validator{Required(), Pattern(`^[A-Z]{3}$`, "must be a three-letter currency code")}, Cacheable: true},
		"dueDate":    {Validators: []Validator{Required(), Pattern(datePattern, "must be a date like 2006-01-02")}},
		"consumerId": {Validators: []Validator{Required(), Positive()}, Cacheable: true},
		"receiverId": {Validators: []Validator{Required(), Positive()}, Cacheable: true},
		"locationId": {Validators: []Validator{Positive()}, Cacheable: true},
	}
}

// ConsumerSchema describes the create-consumer form.
func ConsumerSchema() Schema {
	return Schema{
		"name":       {Validators: []Validator{Required(), MaxLength(120)}},
		"email":      {Validators: []Validator{Email()}},
		"phone":      {Validators: []Validator{Pattern(`^\+?[0-9 ()-]{6,20}$`, "must be a phone number")}},
		"locationId": {Validators: []Validator{Positive()}, Cacheable: true},
	}
}

// ReceiverSchema describes the create-receiver form.
func ReceiverSchema() Schema {
	return Schema{
		"name":          {Validators: []Validator{Required(), MaxLength(120)}},
		"accountNumber": {Validators: []Validator{Required(), Pattern(`^[A-Z0-9 ]{6,34}$`, "must be an account number or IBAN")}},
		"bankName":      {Validators: []Validator{MaxLength(120)}, Cacheable: true},
	}
}

// LocationSchema describes the create-location form.
func LocationSchema() Schema {
	return Schema{
		"name":    {Validators: []Validator{Required(), MaxLength(120)}},
		"address": {Validators: []Validator{MaxLength(200)}},
		"city":    {Validators: []Validator{Required()}, Cacheable: true},
		"country": {Validators: []Validator{Required(), MinLength(2)}, Cacheable: true},
	}
}

// UserPayload converts a valid user form.
func UserPayload(f *Form) model.NewUser {
	return model.NewUser{
		Username:  f.Get("username"),
		Email:     f.Get("email"),
		Password:  f.Get("password"),
		FirstName: f.Get("firstName"),
		LastName:  f.Get("lastName"),
		Role:      model.Role(f.Get("role")),
	}
}

// BillPayload converts a valid bill form.
func BillPayload(f *Form) (model.NewBill, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(f.Get("amount")), 64)
	if err != nil {
		return model.NewBill{}, fmt.Errorf("amount: %w", err)
	}
	due, err := time.Parse(DateLayout, f.Get("dueDate"))
	if err != nil {
		return model.NewBill{}, fmt.Errorf("dueDate: %w", err)
	}
	consumerID, err := atoiField(f, "consumerId")
	if err != nil {
		return model.NewBill{}, err
	}
	receiverID, err := atoiField(f, "receiverId")
	if err != nil {
		return model.NewBill{}, err
	}
	locationID, err := atoiField(f, "locationId")
	if err != nil {
		return model.NewBill{}, err
	}
	return model.NewBill{
		DueDate:    due,
		Title:      f.Get("title"),
		Currency:   f.Get("currency"),
		Amount:     amount,
		ConsumerID: consumerID,
		ReceiverID: receiverID,
		LocationID: locationID,
	}, nil
}

// ConsumerPayload converts a valid consumer form.
func ConsumerPayload(f *Form) (model.Consumer, error) {
	locationID, err := atoiField(f, "locationId")
	if err != nil {
		return model.Consumer{}, err
	}
	return model.Consumer{
		Name:       f.Get("name"),
		Email:      f.Get("email"),
		Phone:      f.Get("phone"),
		LocationID: locationID,
	}, nil
}

// ReceiverPayload converts a valid receiver form.
func ReceiverPayload(f *Form) model.Receiver {
	return model.Receiver{
		Name:          f.Get("name"),
		AccountNumber: f.Get("accountNumber"),
		BankName:      f.Get("bankName"),
	}
}

// LocationPayload converts a valid location form.
func LocationPayload(f *Form) model.Location {
	return model.Location{
		Name:    f.Get("name"),
		Address: f.Get("address"),
		City:    f.Get("city"),
		Country: f.Get("country"),
	}
}

// atoiField parses an optional integer field; empty is 0.
func atoiField(f *Form, field string) (int, error) {
	v := strings.TrimSpace(f.Get(field))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}
