package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankctl/internal/model"
)

type memoryCache struct {
	loadErr error
	data    map[string]map[string]string
}

func (m *memoryCache) LoadFormValues(_ context.Context, form string) (map[string]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := map[string]string{}
	for k, v := range m.data[form] {
		out[k] = v
	}
	return out, nil
}

func (m *memoryCache) SaveFormValues(_ context.Context, form string, values map[string]string) error {
	if m.data == nil {
		m.data = map[string]map[string]string{}
	}
	if m.data[form] == nil {
		m.data[form] = map[string]string{}
	}
	for k, v := range values {
		m.data[form][k] = v
	}
	return nil
}

func TestValidators(t *testing.T) {
	tests := []struct {
		validator Validator
		name      string
		value     string
		wantMsg   string
	}{
		{name: "required ok", validator: Required(), value: "x"},
		{name: "required blank", validator: Required(), value: "  ", wantMsg: "is required"},
		{name: "min length short", validator: MinLength(3), value: "ab", wantMsg: "must be at least 3 characters"},
		{name: "min length empty is skipped", validator: MinLength(3), value: ""},
		{name: "min length counts runes", validator: MinLength(3), value: "äöü"},
		{name: "max length long", validator: MaxLength(2), value: "abc", wantMsg: "must be at most 2 characters"},
		{name: "email ok", validator: Email(), value: "ada@example.com"},
		{name: "email bad", validator: Email(), value: "ada@", wantMsg: "must be a valid email address"},
		{name: "numeric ok", validator: Numeric(), value: "-12.5"},
		{name: "numeric bad", validator: Numeric(), value: "12a", wantMsg: "must be a number"},
		{name: "positive ok", validator: Positive(), value: "0.01"},
		{name: "positive zero", validator: Positive(), value: "0", wantMsg: "must be greater than zero"},
		{name: "positive not a number", validator: Positive(), value: "x", wantMsg: "must be a number"},
		{name: "pattern ok", validator: Pattern(`^[A-Z]{3}$`, "bad code"), value: "EUR"},
		{name: "pattern bad", validator: Pattern(`^[A-Z]{3}$`, "bad code"), value: "eur", wantMsg: "bad code"},
		{name: "pattern invalid regex", validator: Pattern(`(`, "x"), value: "a", wantMsg: "cannot be checked: error parsing regexp: missing closing ): `(`"},
		{name: "one of ok", validator: OneOf("a", "b"), value: "b"},
		{name: "one of bad", validator: OneOf("a", "b"), value: "c", wantMsg: "must be one of a, b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.validator(tt.value))
		})
	}
}

func TestForm_DefaultsSetAndValidate(t *testing.T) {
	f := New(NameBill, BillSchema(), nil)

	assert.Equal(t, "USD", f.Get("currency"))
	assert.Equal(t, "", f.Get("title"))

	errs := f.Validate()
	require.NotNil(t, errs)
	assert.Contains(t, errs["title"], "is required")
	assert.Contains(t, errs["amount"], "is required")
	assert.NotContains(t, errs, "currency")
	assert.NotContains(t, errs, "locationId")

	require.NoError(t, f.Set("title", "Rent"))
	require.NoError(t, f.Set("amount", "1200.50"))
	require.NoError(t, f.Set("dueDate", "2026-07-01"))
	require.NoError(t, f.Set("consumerId", "4"))
	require.NoError(t, f.Set("receiverId", "9"))
	assert.Nil(t, f.Validate())

	err := f.Set("color", "red")
	assert.ErrorIs(t, err, ErrUnknownField)

	payload, err := BillPayload(f)
	require.NoError(t, err)
	assert.Equal(t, model.NewBill{
		DueDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Title:      "Rent",
		Currency:   "USD",
		Amount:     1200.50,
		ConsumerID: 4,
		ReceiverID: 9,
	}, payload)
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{
		"title":  {"is required"},
		"amount": {"is required", "must be a number"},
	}
	assert.Equal(t, "amount: is required, must be a number; title: is required", errs.Error())

	var err error = errs
	var target Errors
	assert.True(t, errors.As(err, &target))
}

func TestForm_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := &memoryCache{}

	first := New(NameBill, BillSchema(), cache)
	require.NoError(t, first.Load(ctx))
	require.NoError(t, first.Set("title", "Power"))
	require.NoError(t, first.Set("currency", "EUR"))
	require.NoError(t, first.Set("locationId", "3"))
	require.NoError(t, first.Save(ctx))

	// Only cacheable fields are remembered
	assert.Equal(t, map[string]string{"currency": "EUR", "locationId": "3"}, cache.data[NameBill])

	second := New(NameBill, BillSchema(), cache)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, "EUR", second.Get("currency"))
	assert.Equal(t, "3", second.Get("locationId"))
	assert.Equal(t, "", second.Get("title"))
}

func TestForm_LoadIgnoresNonCacheableValues(t *testing.T) {
	cache := &memoryCache{data: map[string]map[string]string{
		NameUser: {"password": "leaked", "role": "admin", "bogus": "x"},
	}}
	f := New(NameUser, UserSchema(), cache)
	require.NoError(t, f.Load(context.Background()))

	assert.Equal(t, "", f.Get("password"))
	assert.Equal(t, "admin", f.Get("role"))
	assert.NotContains(t, f.Values(), "bogus")
}

func TestForm_LoadError(t *testing.T) {
	f := New(NameLocation, LocationSchema(), &memoryCache{loadErr: errors.New("disk")})
	assert.Error(t, f.Load(context.Background()))
}

func TestForm_NilCache(t *testing.T) {
	f := New(NameReceiver, ReceiverSchema(), nil)
	assert.NoError(t, f.Load(context.Background()))
	assert.NoError(t, f.Save(context.Background()))
	assert.Equal(t, []string{"accountNumber", "bankName", "name"}, f.Fields())
	assert.Equal(t, NameReceiver, f.Name())
}

func TestPayloads(t *testing.T) {
	user := New(NameUser, UserSchema(), nil)
	for k, v := range map[string]string{
		"username": "ada.l", "email": "ada@example.com", "password": "longenough",
	} {
		require.NoError(t, user.Set(k, v))
	}
	assert.Nil(t, user.Validate())
	assert.Equal(t, model.NewUser{
		Username: "ada.l", Email: "ada@example.com", Password: "longenough", Role: model.RoleViewer,
	}, UserPayload(user))

	consumer := New(NameConsumer, ConsumerSchema(), nil)
	require.NoError(t, consumer.Set("name", "Acme"))
	require.NoError(t, consumer.Set("phone", "+1 (555) 010-0000"))
	assert.Nil(t, consumer.Validate())
	c, err := ConsumerPayload(consumer)
	require.NoError(t, err)
	assert.Equal(t, model.Consumer{Name: "Acme", Phone: "+1 (555) 010-0000"}, c)

	require.NoError(t, consumer.Set("locationId", "1.5"))
	_, err = ConsumerPayload(consumer)
	assert.Error(t, err)

	receiver := New(NameReceiver, ReceiverSchema(), nil)
	require.NoError(t, receiver.Set("name", "Utility"))
	require.NoError(t, receiver.Set("accountNumber", "DE89 3704 0044 0532 0130 00"))
	assert.Nil(t, receiver.Validate())
	assert.Equal(t, "Utility", ReceiverPayload(receiver).Name)

	location := New(NameLocation, LocationSchema(), nil)
	require.NoError(t, location.Set("name", "HQ"))
	require.NoError(t, location.Set("city", "Berlin"))
	require.NoError(t, location.Set("country", "DE"))
	assert.Nil(t, location.Validate())
	assert.Equal(t, model.Location{Name: "HQ", City: "Berlin", Country: "DE"}, LocationPayload(location))

	bill := New(NameBill, BillSchema(), nil)
	require.NoError(t, bill.Set("amount", "ten"))
	_, err = BillPayload(bill)
	assert.Error(t, err)
}
