package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	return Order{
		ID:         "abc123",
		TotalPrice: decimal.NewFromInt(1500),
		ShippingAddress: ShippingAddress{
			FullName:   "Karim",
			Phone:      "01700000000",
			Address:    "House 5, Road 2",
			City:       "Dhaka",
			District:   "Dhanmondi",
			PostalCode: "1209",
		},
		OrderItems: []OrderItem{{Name: "USB Cable", Quantity: 2}, {Name: "Charger", Quantity: 1}},
	}
}

func TestShippingAddress_FullAddress(t *testing.T) {
	a := validOrder().ShippingAddress
	assert.Equal(t, "House 5, Road 2, Dhaka, Dhanmondi - 1209", a.FullAddress())

	a.District = "  "
	a.PostalCode = ""
	assert.Equal(t, "House 5, Road 2, Dhaka", a.FullAddress())
}

func TestOrder_Validate(t *testing.T) {
	require.NoError(t, validOrder().Validate())

	tests := []struct {
		name   string
		mutate func(o *Order)
	}{
		{"missing id", func(o *Order) { o.ID = " " }},
		{"missing name", func(o *Order) { o.ShippingAddress.FullName = "" }},
		{"missing phone", func(o *Order) { o.ShippingAddress.Phone = "" }},
		{"missing address", func(o *Order) { o.ShippingAddress.Address = "" }},
		{"no items", func(o *Order) { o.OrderItems = nil }},
		{"negative total", func(o *Order) { o.TotalPrice = decimal.NewFromInt(-1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOrder)
		})
	}
}

func TestOrder_ItemQuantity(t *testing.T) {
	assert.Equal(t, 3, validOrder().ItemQuantity())
	assert.Equal(t, 0, Order{}.ItemQuantity())
}

func TestOrder_JSONUsesStorefrontFieldNames(t *testing.T) {
	var o Order
	err := json.Unmarshal([]byte(`{"id":"x1","isPaid":true,"totalPrice":"99.50",
		"shippingAddress":{"fullName":"A","phone":"1","address":"B","city":"C","areaId":12},
		"orderItems":[{"name":"N","quantity":4}]}`), &o)
	require.NoError(t, err)
	assert.True(t, o.IsPaid)
	assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("99.5")))
	require.NotNil(t, o.ShippingAddress.AreaID)
	assert.Equal(t, 12, *o.ShippingAddress.AreaID)
	assert.Equal(t, 4, o.ItemQuantity())
}

func TestParseProviderName(t *testing.T) {
	for in, want := range map[string]ProviderName{
		"pathao":      ProviderPathao,
		" Steadfast ": ProviderSteadfast,
		"REDX":        ProviderRedx,
	} {
		got, err := ParseProviderName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseProviderName("ecourier")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestProviderName_DisplayName(t *testing.T) {
	assert.Equal(t, "Pathao", ProviderPathao.DisplayName())
	assert.Equal(t, "Steadfast", ProviderSteadfast.DisplayName())
	assert.Equal(t, "Redx", ProviderRedx.DisplayName())
	assert.Equal(t, "other", ProviderName("other").DisplayName())
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus("Delivered"))
	assert.True(t, IsTerminalStatus(" cancelled "))
	assert.True(t, IsTerminalStatus("partial_delivered"))
	assert.False(t, IsTerminalStatus("Pending"))
	assert.False(t, IsTerminalStatus("in_review"))
	assert.False(t, IsTerminalStatus(""))
}

func TestNewDispatchEvent(t *testing.T) {
	e := NewDispatchEvent(EventDispatchCreated, ProviderRedx)
	assert.Equal(t, EventDispatchCreated, e.Type)
	assert.Equal(t, ProviderRedx, e.Provider)
	assert.NotEqual(t, [16]byte{}, [16]byte(e.ID))
	assert.False(t, e.OccurredAt.IsZero())
}
