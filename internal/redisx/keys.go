package redisx

import "time"

const (
	// Overlay collection: overlay:{namespace}:{collection} -> JSON array
	KeyOverlay = "overlay:%s:%s"

	// Dedup change-feed processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
