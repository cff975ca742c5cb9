package orders

import "github.com/ariefcatur/go-order-overlay/internal/ident"

const (
	EventOrderInserted    = "OrderInserted"
	EventOrderUpdated     = "OrderUpdated"
	EventOrderDeleted     = "OrderDeleted"
	EventLineItemInserted = "LineItemInserted"
	EventLineItemUpdated  = "LineItemUpdated"
	EventLineItemRemoved  = "LineItemRemoved"
	EventImageAttached    = "LineItemImageAttached"
)

// ---- Payload tipe per event ----
// Payloads never carry embedded images; those can be close to the store ceiling.

type OrderChangedPayload struct {
	OrderID   ident.ID `json:"order_id"`
	UserID    ident.ID `json:"user_id"`
	Date      string   `json:"date"`
	OrderType string   `json:"order_type"`
	LineCount int      `json:"line_count"`
	Identity  string   `json:"identity"`
}

type OrderDeletedPayload struct {
	OrderID ident.ID `json:"order_id"`
}

type LineItemChangedPayload struct {
	OrderID   ident.ID `json:"order_id"`
	UniqueKey string   `json:"unique_key"`
	ProductID ident.ID `json:"product_id"`
	Quantity  int      `json:"quantity"`
	HasImage  bool     `json:"has_image,omitempty"`
}

func orderChanged(o Order) OrderChangedPayload {
	return OrderChangedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Date:      o.Date,
		OrderType: o.OrderType,
		LineCount: len(o.Products),
		Identity:  o.Identity,
	}
}

func lineItemChanged(orderID ident.ID, it LineItem) LineItemChangedPayload {
	return LineItemChangedPayload{
		OrderID:   orderID,
		UniqueKey: it.UniqueKey,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		HasImage:  it.Image != "",
	}
}
