package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the overlay backend needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const overlaySchema = `
CREATE TABLE IF NOT EXISTS overlay_collections (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	payload    BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// OverlayBackend keeps each overlay collection as one row.
type OverlayBackend struct {
	DB        Querier
	Namespace string
}

func (b *OverlayBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.DB.Exec(ctx, overlaySchema)
	return err
}

func (b *OverlayBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.DB.QueryRow(ctx,
		`SELECT payload FROM overlay_collections WHERE namespace=$1 AND key=$2`,
		b.Namespace, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (b *OverlayBackend) Save(ctx context.Context, key string, data []byte) error {
	_, err := b.DB.Exec(ctx, `
		INSERT INTO overlay_collections(namespace, key, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, b.Namespace, key, data)
	return err
}

func (b *OverlayBackend) Delete(ctx context.Context, key string) error {
	_, err := b.DB.Exec(ctx,
		`DELETE FROM overlay_collections WHERE namespace=$1 AND key=$2`, b.Namespace, key)
	return err
}
