package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/imaging"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
)

const filterDateLayout = "2006-01-02"

type OrdersHandler struct {
	Book *orders.Book
	// MaxImageBytes bounds how much of an upload is read; the normalizer
	// rejects anything longer.
	MaxImageBytes int
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/selected", h.selectedOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Put("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Post("/orders/{id}/select", h.selectOrder)

	r.Get("/orders/{id}/items", h.listItems)
	r.Post("/orders/{id}/items", h.createItem)
	r.Post("/orders/{id}/items/image", h.attachImage)
	r.Patch("/orders/{id}/items/{key}", h.updateItem)
	r.Delete("/orders/{id}/items/{key}", h.deleteItem)

	r.Get("/products", h.listProducts)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f orders.Filter
	if s := q.Get("userId"); s != "" {
		f.UserID = ident.Parse(s)
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(filterDateLayout, s)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid "+p.name+" date, want YYYY-MM-DD")
			return
		}
		*p.dst = t
	}
	writeJSON(w, http.StatusOK, h.Book.Orders(f))
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var draft orders.Order
	if !decodeJSON(w, r, &draft) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Book.InsertOrder(ctx, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	o, err := h.Book.Order(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var in orders.Order
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Book.UpdateOrder(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Book.DeleteOrder(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) selectOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.Book.Select(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) selectedOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Book.Selected()
	if !ok {
		writeErr(w, http.StatusNotFound, "no order selected")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	items, err := h.Book.LineItems(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *OrdersHandler) createItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var draft orders.LineItem
	if !decodeJSON(w, r, &draft) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Book.InsertLineItem(ctx, id, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *OrdersHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var patch orders.LineItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Book.UpdateLineItem(ctx, id, chi.URLParam(r, "key"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// deleteItem accepts ?productId= as a fallback for rows whose key the
// client never learned.
func (h *OrdersHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ref := orders.LineItemRef{
		UniqueKey: chi.URLParam(r, "key"),
		ProductID: ident.Parse(r.URL.Query().Get("productId")),
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Book.RemoveLineItem(ctx, id, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// attachImage reads multipart field "file" plus optional "uniqueKey" and
// "productId" form fields.
func (h *OrdersHandler) attachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	limit := h.MaxImageBytes
	if limit <= 0 {
		limit = imaging.DefaultMaxInputBytes
	}
	if err := r.ParseMultipartForm(int64(limit) + multipartSlack); err != nil {
		if tooLarge(err) {
			writeErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	// baca maksimal limit+1 byte, sisanya pasti ditolak
	raw, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "read file")
		return
	}
	ref := orders.LineItemRef{
		UniqueKey: r.FormValue("uniqueKey"),
		ProductID: ident.Parse(r.FormValue("productId")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	it, err := h.Book.AttachImage(ctx, id, ref, fh.Header.Get("Content-Type"), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// listProducts serves the cached catalog; ?refresh=1 refetches it first.
func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "" {
		writeJSON(w, http.StatusOK, h.Book.Products())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.Book.RefreshProducts(ctx))
}
