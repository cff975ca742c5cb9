package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

type BootstrapResp struct {
	Orders   []orders.Order   `json:"orders"`
	Users    []users.User     `json:"users"`
	Products []orders.Product `json:"products"`
}

// BootstrapHandler reloads every collection at once, the way the console
// does when a page opens.
type BootstrapHandler struct {
	Book      *orders.Book
	Directory *users.Directory
}

func (h *BootstrapHandler) Register(r chi.Router) {
	r.Get("/bootstrap", h.bootstrap)
}

func (h *BootstrapHandler) bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	resp, err := Bootstrap(ctx, h.Book, h.Directory)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Bootstrap loads orders, users and products concurrently. The loads
// themselves degrade instead of failing; only ctx expiry is an error.
func Bootstrap(ctx context.Context, book *orders.Book, dir *users.Directory) (BootstrapResp, error) {
	var resp BootstrapResp
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp.Products = book.RefreshProducts(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		resp.Orders = book.LoadOrders(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		resp.Users = dir.LoadUsers(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return BootstrapResp{}, err
	}
	return resp, nil
}
