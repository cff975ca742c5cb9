package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
)

// NextOrderID allocates over the merged view and re-checks the raw overlay,
// which may hold ids the merged view dropped.
func NextOrderID(merged, stored []Order) ident.ID {
	seen := make([]ident.ID, 0, len(merged))
	taken := ident.Set{}
	for _, o := range merged {
		seen = append(seen, o.ID)
		taken.Add(o.ID)
	}
	for _, o := range stored {
		taken.Add(o.ID)
	}
	return ident.Next(seen, taken.Has)
}

// NextProductLineID scans catalog ids and every product referenced by any
// line item of any order.
func NextProductLineID(all []Order, products []Product) ident.ID {
	seen := make([]ident.ID, 0, len(products))
	for _, p := range products {
		seen = append(seen, p.ID)
	}
	for _, o := range all {
		for _, it := range o.Products {
			seen = append(seen, it.ProductID)
		}
	}
	return ident.Next(seen, ident.NewSet(seen).Has)
}

// newUniqueKey returns orderId-productId-position-millis-random, regenerated
// until it is free within the order.
func newUniqueKey(orderID, pid ident.ID, pos int, now time.Time, taken map[string]struct{}) string {
	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
		k := fmt.Sprintf("%d-%d-%d-%d-%s", orderID, pid, pos, now.UnixMilli(), suffix)
		if _, dup := taken[k]; !dup {
			return k
		}
	}
}

// ensureKeys gives every row of o a distinct unique key. Reports whether
// anything changed.
func ensureKeys(o *Order, now time.Time) bool {
	changed := false
	seen := make(map[string]struct{}, len(o.Products))
	all := o.uniqueKeys()
	for i := range o.Products {
		it := &o.Products[i]
		if _, dup := seen[it.UniqueKey]; it.UniqueKey == "" || dup {
			it.UniqueKey = newUniqueKey(o.ID, it.ProductID, i, now, all)
			all[it.UniqueKey] = struct{}{}
			changed = true
		}
		seen[it.UniqueKey] = struct{}{}
	}
	return changed
}
