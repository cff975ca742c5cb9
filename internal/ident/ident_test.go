package ident

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(in []int) []ID {
	out := make([]ID, len(in))
	for i, v := range in {
		out[i] = ID(v)
	}
	return out
}

func TestNext(t *testing.T) {
	assert.Equal(t, ID(1), Next(nil, nil))
	assert.Equal(t, ID(1), Next(ids([]int{0, -4}), nil), "non-positive ids are ignored")
	assert.Equal(t, ID(8), Next(ids([]int{3, 7, 2}), nil))

	taken := NewSet(ids([]int{8, 9}), ids([]int{11}))
	assert.Equal(t, ID(10), Next(ids([]int{3, 7}), taken.Has), "probe skips pre-seeded collisions")
}

func TestProbe(t *testing.T) {
	taken := NewSet(ids([]int{10, 11}))
	assert.Equal(t, ID(12), Probe(10, taken.Has))
	assert.Equal(t, ID(4), Probe(4, taken.Has))
	taken.Add(4)
	assert.Equal(t, ID(5), Probe(4, taken.Has))
}

func TestIDJSON(t *testing.T) {
	cases := map[string]ID{
		`5`:      5,
		`"12"`:   12,
		`" 3 "`:  3,
		`4.0`:    4,
		`"abc"`:  0,
		`null`:   0,
		`true`:   0,
		`"-2"`:   -2,
		`1e3`:    1000,
		`"9.75"`: 9,
	}
	for in, want := range cases {
		var got ID
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	b, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42}`, string(b))
}

func TestParseRejectsIdsBeyondInt32(t *testing.T) {
	assert.Equal(t, ID(2147483647), Parse("2147483647"))
	assert.Equal(t, ID(0), Parse("2147483648"))
	assert.Equal(t, ID(0), Parse("9223372036854775807"))
	assert.Equal(t, ID(0), Parse("-2147483649"))
	assert.Equal(t, ID(0), Parse("3e9"))

	var got ID
	require.NoError(t, json.Unmarshal([]byte(`9223372036854775807`), &got))
	assert.Equal(t, ID(0), got)
	assert.Equal(t, ID(1), Next([]ID{Parse("9223372036854775807")}, nil), "an out-of-range id cannot wrap the allocator")
}

func TestNextProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("result is fresh, above every seen id and minimal", prop.ForAll(
		func(seenRaw []int, extraRaw []int) bool {
			seen := ids(seenRaw)
			taken := NewSet(seen, ids(extraRaw))
			got := Next(seen, taken.Has)
			if taken.Has(got) {
				return false
			}
			var max ID
			for _, id := range seen {
				if id > max {
					max = id
				}
			}
			if got <= max {
				return false
			}
			for c := max + 1; c < got; c++ {
				if !taken.Has(c) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-5, 60)),
		gen.SliceOf(gen.IntRange(0, 80)),
	))

	properties.TestingRun(t)
}
