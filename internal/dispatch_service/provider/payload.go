package provider

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// Description limits of each courier's free-text field.
const (
	PathaoDescriptionLimit    = 250
	SteadfastNoteLimit        = 200
	RedxInstructionLimit      = 150
	invoiceSuffixLength       = 8
	truncationMarker          = "..."
	pathaoDeliveryTypeNormal  = 48
	pathaoItemTypeParcel      = 2
	pathaoDefaultWeightKg     = 0.5
	redxDefaultParcelWeightGm = 500
)

// ItemDescription renders "Name (qty), Name (qty)" cut to at most limit runes.
func ItemDescription(items []domain.OrderItem, limit int) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%d)", strings.TrimSpace(item.Name), item.Quantity))
	}
	return Truncate(strings.Join(parts, ", "), limit)
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= len(truncationMarker) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(truncationMarker)]) + truncationMarker
}

// ShortInvoiceID is the uppercased last eight characters of the order id.
func ShortInvoiceID(orderID string) string {
	runes := []rune(strings.TrimSpace(orderID))
	if len(runes) > invoiceSuffixLength {
		runes = runes[len(runes)-invoiceSuffixLength:]
	}
	return strings.ToUpper(string(runes))
}

// CollectAmount is what the courier collects at the door: nothing for paid
// orders, otherwise the total rounded to whole taka.
func CollectAmount(order domain.Order) int64 {
	if order.IsPaid {
		return 0
	}
	return RoundAmount(order)
}

// RoundAmount is the order total rounded half away from zero to whole units.
func RoundAmount(order domain.Order) int64 {
	return order.TotalPrice.Round(0).IntPart()
}

// PathaoOrderRequest is the body of POST /aladdin/api/v1/orders.
type PathaoOrderRequest struct {
	StoreID            int     `json:"store_id"`
	MerchantOrderID    string  `json:"merchant_order_id"`
	RecipientName      string  `json:"recipient_name"`
	RecipientPhone     string  `json:"recipient_phone"`
	RecipientAddress   string  `json:"recipient_address"`
	RecipientCity      int     `json:"recipient_city"`
	RecipientZone      int     `json:"recipient_zone"`
	RecipientArea      *int    `json:"recipient_area,omitempty"`
	DeliveryType       int     `json:"delivery_type"`
	ItemType           int     `json:"item_type"`
	SpecialInstruction string  `json:"special_instruction"`
	ItemQuantity       int     `json:"item_quantity"`
	ItemWeight         float64 `json:"item_weight"`
	AmountToCollect    int64   `json:"amount_to_collect"`
	ItemDescription    string  `json:"item_description"`
}

// BuildPathaoOrderRequest maps an order onto Pathao's schema. Location ids
// are resolved by the caller.
func BuildPathaoOrderRequest(order domain.Order, storeID, cityID, zoneID int) PathaoOrderRequest {
	addr := order.ShippingAddress
	return PathaoOrderRequest{
		StoreID:            storeID,
		MerchantOrderID:    order.ID,
		RecipientName:      addr.FullName,
		RecipientPhone:     addr.Phone,
		RecipientAddress:   addr.FullAddress(),
		RecipientCity:      cityID,
		RecipientZone:      zoneID,
		RecipientArea:      addr.AreaID,
		DeliveryType:       pathaoDeliveryTypeNormal,
		ItemType:           pathaoItemTypeParcel,
		SpecialInstruction: "Order " + order.ID,
		ItemQuantity:       order.ItemQuantity(),
		ItemWeight:         pathaoDefaultWeightKg,
		AmountToCollect:    CollectAmount(order),
		ItemDescription:    ItemDescription(order.OrderItems, PathaoDescriptionLimit),
	}
}

// SteadfastOrderRequest is the body of POST /create_order.
type SteadfastOrderRequest struct {
	Invoice          string `json:"invoice"`
	RecipientName    string `json:"recipient_name"`
	RecipientPhone   string `json:"recipient_phone"`
	RecipientAddress string `json:"recipient_address"`
	CODAmount        int64  `json:"cod_amount"`
	Note             string `json:"note"`
}

func BuildSteadfastOrderRequest(order domain.Order) SteadfastOrderRequest {
	addr := order.ShippingAddress
	return SteadfastOrderRequest{
		Invoice:          ShortInvoiceID(order.ID),
		RecipientName:    addr.FullName,
		RecipientPhone:   addr.Phone,
		RecipientAddress: addr.FullAddress(),
		CODAmount:        CollectAmount(order),
		Note:             ItemDescription(order.OrderItems, SteadfastNoteLimit),
	}
}

// RedxParcelRequest is the body of POST /parcel.
type RedxParcelRequest struct {
	CustomerName         string `json:"customer_name"`
	CustomerPhone        string `json:"customer_phone"`
	DeliveryArea         string `json:"delivery_area"`
	DeliveryAreaID       int    `json:"delivery_area_id"`
	CustomerAddress      string `json:"customer_address"`
	MerchantInvoiceID    string `json:"merchant_invoice_id"`
	CashCollectionAmount int64  `json:"cash_collection_amount"`
	ParcelWeight         int    `json:"parcel_weight"`
	Instruction          string `json:"instruction"`
	Value                int64  `json:"value"`
}

// BuildRedxParcelRequest maps an order onto Redx's schema. The area id is
// resolved by the caller.
func BuildRedxParcelRequest(order domain.Order, areaID int) RedxParcelRequest {
	addr := order.ShippingAddress
	area := strings.TrimSpace(addr.District)
	if area == "" {
		area = strings.TrimSpace(addr.City)
	}
	return RedxParcelRequest{
		CustomerName:         addr.FullName,
		CustomerPhone:        addr.Phone,
		DeliveryArea:         area,
		DeliveryAreaID:       areaID,
		CustomerAddress:      addr.FullAddress(),
		MerchantInvoiceID:    ShortInvoiceID(order.ID),
		CashCollectionAmount: CollectAmount(order),
		ParcelWeight:         redxDefaultParcelWeightGm,
		Instruction:          ItemDescription(order.OrderItems, RedxInstructionLimit),
		Value:                RoundAmount(order),
	}
}
