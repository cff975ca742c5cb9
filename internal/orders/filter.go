package orders

import (
	"time"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
)

// Filter narrows the merged order list. Zero fields do not filter.
// Date bounds are inclusive and compared on the calendar date only (UTC).
type Filter struct {
	UserID ident.ID
	From   time.Time
	To     time.Time
}

func (f Filter) Empty() bool {
	return f.UserID <= 0 && f.From.IsZero() && f.To.IsZero()
}

func (f Filter) Match(o Order) bool {
	if f.UserID > 0 && o.UserID != f.UserID {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	t, ok := o.Time()
	if !ok {
		return false
	}
	d := day(t)
	if !f.From.IsZero() && d.Before(day(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(day(f.To)) {
		return false
	}
	return true
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Apply returns the matching orders, preserving order.
func (f Filter) Apply(in []Order) []Order {
	out := make([]Order, 0, len(in))
	for _, o := range in {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}
