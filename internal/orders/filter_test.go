package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
)

func TestFilter(t *testing.T) {
	list := []Order{
		{ID: 1, UserID: 1, Date: "2020-03-02T00:00:00.000Z"},
		{ID: 2, UserID: 2, Date: "2020-03-05T23:59:00.000Z"},
		{ID: 3, UserID: 1, Date: "2020-03-10T08:00:00Z"},
		{ID: 4, UserID: 1, Date: "not a date"},
	}
	day := func(s string) time.Time {
		d, _ := time.Parse("2006-01-02", s)
		return d
	}
	got := func(f Filter) []ident.ID {
		var out []ident.ID
		for _, o := range f.Apply(list) {
			out = append(out, o.ID)
		}
		return out
	}

	assert.True(t, Filter{}.Empty())
	assert.Equal(t, []ident.ID{1, 2, 3, 4}, got(Filter{}))
	assert.Equal(t, []ident.ID{1, 3, 4}, got(Filter{UserID: 1}))
	assert.Equal(t, []ident.ID{2, 3}, got(Filter{From: day("2020-03-05")}), "bounds compare dates only")
	assert.Equal(t, []ident.ID{1, 2}, got(Filter{To: day("2020-03-05")}))
	assert.Equal(t, []ident.ID{3}, got(Filter{UserID: 1, From: day("2020-03-03"), To: day("2020-03-10")}))
}

func TestLineItemPatchNormalize(t *testing.T) {
	neg, q := ident.ID(-3), -5
	p := LineItemPatch{ProductID: &neg, Quantity: &q}.Normalize()
	assert.Nil(t, p.ProductID)
	assert.Equal(t, 1, *p.Quantity)
	assert.Equal(t, -5, q, "caller's value is not modified")
}
