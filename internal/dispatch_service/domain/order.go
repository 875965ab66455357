package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ShippingAddress is the delivery destination captured at checkout.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postalCode"`
	AreaID     *int   `json:"areaId,omitempty"` // Pathao area id, when the storefront already knows it
}

// FullAddress renders the address as a single line:
// "<address>, <city>, <district> - <postalCode>". Empty parts are skipped.
func (a ShippingAddress) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Address, a.City, a.District} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, ", ")
	if pc := strings.TrimSpace(a.PostalCode); pc != "" {
		line += " - " + pc
	}
	return line
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is the storefront's order as handed to the dispatch layer.
// It is read-only here.
type Order struct {
	ID              string          `json:"id"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	OrderItems      []OrderItem     `json:"orderItems"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
}

// Validate checks the fields every courier requires.
func (o Order) Validate() error {
	switch {
	case strings.TrimSpace(o.ID) == "":
		return fmt.Errorf("%w: missing order id", ErrInvalidOrder)
	case strings.TrimSpace(o.ShippingAddress.FullName) == "":
		return fmt.Errorf("%w: missing recipient name", ErrInvalidOrder)
	case strings.TrimSpace(o.ShippingAddress.Phone) == "":
		return fmt.Errorf("%w: missing recipient phone", ErrInvalidOrder)
	case strings.TrimSpace(o.ShippingAddress.Address) == "":
		return fmt.Errorf("%w: missing recipient address", ErrInvalidOrder)
	case len(o.OrderItems) == 0:
		return fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	case o.TotalPrice.IsNegative():
		return fmt.Errorf("%w: negative total price", ErrInvalidOrder)
	}
	return nil
}

// ItemQuantity is the total number of units across all line items.
func (o Order) ItemQuantity() int {
	total := 0
	for _, item := range o.OrderItems {
		total += item.Quantity
	}
	return total
}
