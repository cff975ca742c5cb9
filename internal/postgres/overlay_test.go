package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

// fakeDB is a tiny in-memory stand-in keyed by namespace/key.
type fakeDB struct {
	rows  map[string][]byte
	execs []string
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	p, ok := f.rows[args[0].(string)+"/"+args[1].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{payload: p}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	switch {
	case strings.Contains(sql, "INSERT INTO overlay_collections"):
		f.rows[args[0].(string)+"/"+args[1].(string)] = args[2].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "DELETE FROM overlay_collections"):
		delete(f.rows, args[0].(string)+"/"+args[1].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestOverlayBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{rows: map[string][]byte{}}
	b := &OverlayBackend{DB: db, Namespace: "console"}

	require.NoError(t, b.EnsureSchema(ctx))
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS overlay_collections")

	_, ok, err := b.Load(ctx, "newUsers")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Save(ctx, "newUsers", []byte(`[]`)))
	got, ok, err := b.Load(ctx, "newUsers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))

	other := &OverlayBackend{DB: db, Namespace: "other"}
	_, ok, err = other.Load(ctx, "newUsers")
	require.NoError(t, err)
	assert.False(t, ok, "namespaces must not leak into each other")

	require.NoError(t, b.Delete(ctx, "newUsers"))
	_, ok, err = b.Load(ctx, "newUsers")
	require.NoError(t, err)
	assert.False(t, ok)
}

type brokenDB struct{ fakeDB }

func (brokenDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("connection reset")}
}

func TestOverlayBackendLoadPropagatesErrors(t *testing.T) {
	b := &OverlayBackend{DB: &brokenDB{}, Namespace: "console"}
	_, ok, err := b.Load(context.Background(), "newOrders")
	assert.Error(t, err)
	assert.False(t, ok)
}
