package overlay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   int    `json:"id"`
	Note string `json:"note"`
}

type countingObserver map[string]int

func (c countingObserver) StoreWrite(key, result string) { c[key+":"+result]++ }

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), 0, nil, nil)
	col := NewCollection[record](store, KeyOrders)

	_, ok, err := col.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, col.Put(ctx, []record{{ID: 3, Note: "a"}, {ID: 1}}))
	got, ok, err := col.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []record{{ID: 3, Note: "a"}, {ID: 1}}, got)

	require.NoError(t, col.Remove(ctx))
	_, ok, err = col.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollectionPutNilStoresEmptyArray(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	col := NewCollection[record](NewStore(backend, 0, nil, nil), KeyUsers)

	require.NoError(t, col.Put(ctx, nil))
	raw, ok, _ := backend.Load(ctx, KeyUsers)
	require.True(t, ok)
	assert.Equal(t, "[]", string(raw))

	got, ok, err := col.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCollectionRejectsOversizePayloadWithoutWriting(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	obs := countingObserver{}
	store := NewStore(backend, 64, nil, obs)
	col := NewCollection[record](store, KeyOrders)

	require.NoError(t, col.Put(ctx, []record{{ID: 1}}))

	err := col.Put(ctx, []record{{ID: 1, Note: strings.Repeat("x", 100)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, KeyOrders, capErr.Key)
	assert.Equal(t, 64, capErr.Limit)
	assert.Greater(t, capErr.Size, 64)

	got, _, err := col.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: 1}}, got, "previous payload must survive a rejected put")
	assert.Equal(t, 1, obs[KeyOrders+":capacity"])
	assert.Equal(t, 1, obs[KeyOrders+":ok"])
}

func TestCollectionPurgesCorruptEntry(t *testing.T) {
	ctx := context.Background()
	for name, payload := range map[string]string{
		"garbage":   "{not json",
		"object":    `{"id":1}`,
		"null":      "null",
		"wrongType": `["a","b"]`,
	} {
		t.Run(name, func(t *testing.T) {
			backend := NewMemoryBackend()
			require.NoError(t, backend.Save(ctx, KeyOrders, []byte(payload)))
			obs := countingObserver{}
			col := NewCollection[record](NewStore(backend, 0, nil, obs), KeyOrders)

			got, ok, err := col.Get(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, got)

			_, still, _ := backend.Load(ctx, KeyOrders)
			assert.False(t, still, "corrupt entry must be cleared")
			assert.Equal(t, 1, obs[KeyOrders+":corrupt"])
		})
	}
}

type failingBackend struct{ MemoryBackend }

func (f *failingBackend) Save(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestCollectionPutSurfacesBackendError(t *testing.T) {
	col := NewCollection[record](NewStore(&failingBackend{}, 0, nil, nil), KeyDeletedUsers)
	err := col.Put(context.Background(), []record{{ID: 1}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCapacityExceeded))
	assert.Contains(t, err.Error(), KeyDeletedUsers)
}
