package httpx

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ariefcatur/go-order-overlay/internal/auth"
	"github.com/ariefcatur/go-order-overlay/internal/imaging"
	"github.com/ariefcatur/go-order-overlay/internal/metrics"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/overlay"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

type API struct {
	Log           *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Gate          *auth.Gate
	Book          *orders.Book
	Directory     *users.Directory
	MaxImageBytes int
	// MaxBodyBytes bounds request bodies. Defaults to the store ceiling,
	// since nothing larger could be persisted anyway.
	MaxBodyBytes int
}

// Router mounts login/logout publicly and everything else behind the gate.
func (a API) Router() *chi.Mux {
	r := NewRouter(a.Log, a.Metrics, a.Gatherer)
	ah := &AuthHandler{Gate: a.Gate}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(a.bodyLimit()))
		ah.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(a.Gate.Require)
			ah.RegisterSession(r)
			(&BootstrapHandler{Book: a.Book, Directory: a.Directory}).Register(r)
			(&OrdersHandler{Book: a.Book, MaxImageBytes: a.MaxImageBytes}).Register(r)
			(&UsersHandler{Directory: a.Directory}).Register(r)
		})
	})
	return r
}

func (a API) bodyLimit() int64 {
	n := a.MaxBodyBytes
	if n <= 0 {
		n = overlay.DefaultMaxBytes
	}
	img := a.MaxImageBytes
	if img <= 0 {
		img = imaging.DefaultMaxInputBytes
	}
	// an upload must still fit, multipart framing included
	return int64(max(n, img+multipartSlack))
}
