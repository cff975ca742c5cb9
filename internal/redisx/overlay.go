package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OverlayBackend persists overlay collections as plain redis strings without
// expiry. Keys are scoped by namespace so several consoles can share a server.
type OverlayBackend struct {
	RDB       redis.Cmdable
	Namespace string
}

func (b *OverlayBackend) key(k string) string {
	return fmt.Sprintf(KeyOverlay, b.Namespace, k)
}

func (b *OverlayBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.RDB.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *OverlayBackend) Save(ctx context.Context, key string, data []byte) error {
	return b.RDB.Set(ctx, b.key(key), data, 0).Err()
}

func (b *OverlayBackend) Delete(ctx context.Context, key string) error {
	return b.RDB.Del(ctx, b.key(key)).Err()
}
