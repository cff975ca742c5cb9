package catalog

import (
	"context"
	"log/slog"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

// Source is everything the reconciliation engines need from the remote.
type Source interface {
	orders.Remote
	users.Remote
}

// Fallback serves sample data when a read fails. Writes pass through and
// their errors reach the caller, which is the mirror worker and only logs.
type Fallback struct {
	Source Source
	Log    *slog.Logger
}

func (f *Fallback) logger() *slog.Logger {
	if f.Log == nil {
		return slog.Default()
	}
	return f.Log
}

func (f *Fallback) ListOrders(ctx context.Context) ([]orders.Order, error) {
	out, err := f.Source.ListOrders(ctx)
	if err != nil {
		f.logger().Warn("remote orders unavailable, serving sample data", "error", err)
		return SampleOrders(), nil
	}
	return out, nil
}

func (f *Fallback) ListUsers(ctx context.Context) ([]users.User, error) {
	out, err := f.Source.ListUsers(ctx)
	if err != nil {
		f.logger().Warn("remote users unavailable, serving sample data", "error", err)
		return SampleUsers(), nil
	}
	return out, nil
}

func (f *Fallback) ListProducts(ctx context.Context) ([]orders.Product, error) {
	out, err := f.Source.ListProducts(ctx)
	if err != nil {
		f.logger().Warn("remote products unavailable, serving sample data", "error", err)
		return SampleProducts(), nil
	}
	return out, nil
}

func (f *Fallback) CreateOrder(ctx context.Context, o orders.Order) error {
	return f.Source.CreateOrder(ctx, o)
}

func (f *Fallback) ReplaceOrder(ctx context.Context, id ident.ID, o orders.Order) error {
	return f.Source.ReplaceOrder(ctx, id, o)
}

func (f *Fallback) DeleteOrder(ctx context.Context, id ident.ID) error {
	return f.Source.DeleteOrder(ctx, id)
}

func (f *Fallback) CreateUser(ctx context.Context, u users.User) error {
	return f.Source.CreateUser(ctx, u)
}

func (f *Fallback) ReplaceUser(ctx context.Context, id ident.ID, u users.User) error {
	return f.Source.ReplaceUser(ctx, id, u)
}

func (f *Fallback) DeleteUser(ctx context.Context, id ident.ID) error {
	return f.Source.DeleteUser(ctx, id)
}
