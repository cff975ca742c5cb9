package orders

import (
	"time"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
)

// DateLayout is how order dates are written; it matches the remote API.
const DateLayout = "2006-01-02T15:04:05.000Z"

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is catalog reference data. Never mutated locally.
type Product struct {
	ID          ident.ID `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Rating      *Rating  `json:"rating,omitempty"`
}

// LineItem is one row of an order. UniqueKey is the only stable identity of
// a row inside its order; ProductID is not guaranteed unique on the wire.
type LineItem struct {
	ProductID ident.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
	UniqueKey string   `json:"_uniqueKey,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Image     string   `json:"image,omitempty"`
	Product   *Product `json:"product,omitempty"`
}

type Order struct {
	ID            ident.ID   `json:"id"`
	UserID        ident.ID   `json:"userId"`
	Date          string     `json:"date"`
	OrderType     string     `json:"orderType"`
	Products      []LineItem `json:"products"`
	SchemaVersion *int       `json:"__v,omitempty"`
	// Identity tells apart two records that claim the same id. Local only.
	Identity string `json:"_identity,omitempty"`
}

// RemoteIdentity is the identity token given to orders listed by the remote.
func RemoteIdentity(id ident.ID) string { return "remote:" + id.String() }

func (o Order) Clone() Order {
	c := o
	if o.Products != nil {
		c.Products = make([]LineItem, len(o.Products))
		copy(c.Products, o.Products)
	}
	return c
}

// Time parses Date. ok is false for empty or unparsable dates.
func (o Order) Time() (time.Time, bool) {
	if o.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, o.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (o Order) itemByKey(key string) int {
	if key == "" {
		return -1
	}
	for i, it := range o.Products {
		if it.UniqueKey == key {
			return i
		}
	}
	return -1
}

// lastItemByProduct returns the most recently appended row for pid.
func (o Order) lastItemByProduct(pid ident.ID) int {
	for i := len(o.Products) - 1; i >= 0; i-- {
		if o.Products[i].ProductID == pid {
			return i
		}
	}
	return -1
}

func (o Order) productIDs() ident.Set {
	s := ident.Set{}
	for _, it := range o.Products {
		s.Add(it.ProductID)
	}
	return s
}

func (o Order) uniqueKeys() map[string]struct{} {
	s := make(map[string]struct{}, len(o.Products))
	for _, it := range o.Products {
		if it.UniqueKey != "" {
			s[it.UniqueKey] = struct{}{}
		}
	}
	return s
}

// LineItemPatch is a partial update of a line item; nil fields are left alone.
type LineItemPatch struct {
	ProductID *ident.ID `json:"productId,omitempty"`
	Quantity  *int      `json:"quantity,omitempty"`
	Title     *string   `json:"title,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Image     *string   `json:"image,omitempty"`
}

// Normalize clamps quantity to at least 1 and product id to at least 0.
// A zero product id means "keep the current one" and is dropped.
func (p LineItemPatch) Normalize() LineItemPatch {
	if p.Quantity != nil {
		q := max(*p.Quantity, 1)
		p.Quantity = &q
	}
	if p.ProductID != nil {
		if *p.ProductID <= 0 {
			p.ProductID = nil
		} else {
			pid := *p.ProductID
			p.ProductID = &pid
		}
	}
	return p
}

// LineItemRef points at a line item. UniqueKey wins when both are set.
type LineItemRef struct {
	UniqueKey string   `json:"uniqueKey,omitempty"`
	ProductID ident.ID `json:"productId,omitempty"`
}

func (r LineItemRef) empty() bool { return r.UniqueKey == "" && r.ProductID <= 0 }
