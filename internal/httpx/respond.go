package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-order-overlay/internal/auth"
	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/imaging"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/overlay"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps domain errors to status codes. Anything unknown is a 500.
func writeError(w http.ResponseWriter, err error) {
	var capErr *overlay.CapacityError
	switch {
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusInsufficientStorage, map[string]any{
			"error": "local store is full",
			"key":   capErr.Key,
			"size":  capErr.Size,
			"limit": capErr.Limit,
		})
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrLineItemNotFound),
		errors.Is(err, users.ErrUserNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrDuplicateIdentifier),
		errors.Is(err, orders.ErrDuplicateProductInOrder):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, imaging.ErrInvalidImageInput),
		errors.Is(err, users.ErrInvalidUser),
		errors.Is(err, auth.ErrMissingCredentials):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusGatewayTimeout, "timeout")
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// multipartSlack covers form framing and small fields around an upload.
const multipartSlack = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if tooLarge(err) {
			writeErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// pathID parses a positive numeric id from the URL; writes 400 otherwise.
func pathID(w http.ResponseWriter, raw string) (ident.ID, bool) {
	id := ident.Parse(raw)
	if !id.Valid() {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
