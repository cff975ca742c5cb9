package catalog

import (
	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

// Outgoing shapes. Local-only fields (unique keys, identity tokens, title,
// price and image overrides, embedded products) never leave the process.

type cartLine struct {
	ProductID ident.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
}

type cart struct {
	ID       ident.ID   `json:"id,omitempty"`
	UserID   ident.ID   `json:"userId"`
	Date     string     `json:"date"`
	Products []cartLine `json:"products"`
	V        *int       `json:"__v,omitempty"`
}

func cartFromOrder(o orders.Order) cart {
	c := cart{
		ID:       o.ID,
		UserID:   o.UserID,
		Date:     o.Date,
		Products: make([]cartLine, 0, len(o.Products)),
		V:        o.SchemaVersion,
	}
	for _, it := range o.Products {
		c.Products = append(c.Products, cartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return c
}

func userBody(u users.User) users.User {
	u = u.Clone()
	u.SchemaVersion = nil
	return u
}
