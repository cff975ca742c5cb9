package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-overlay/internal/feed"
	kafkax "github.com/ariefcatur/go-order-overlay/internal/kafka"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

// Line is one printed change event.
type Line struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Partition     int             `json:"partition"`
	Offset        int64           `json:"offset"`
	Summary       string          `json:"summary"`
	Payload       json.RawMessage `json:"payload"`
}

type Service struct {
	Dedup Deduper
	Out   io.Writer
	Log   *slog.Logger

	mu sync.Mutex // workers share Out
}

// HandleChange dipasang sebagai handler consumer. Returning nil commits the
// offset, so undecodable messages are logged and skipped, not retried.
func (s *Service) HandleChange(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env feed.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.logger().Warn("skip undecodable message", "partition", m.Partition, "offset", m.Offset, "error", err)
		return nil
	}
	if env.EventVersion != feed.EventVersion {
		s.logger().Warn("skip unknown event version", "event_id", env.EventID, "version", env.EventVersion)
		return nil
	}

	// 2) dedup via Redis (pakai event_id)
	if s.Dedup != nil && env.EventID != "" {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if !first {
			return nil
		}
	}

	// 3) ringkas payload lalu cetak
	summary, err := Summarize(env)
	if err != nil {
		s.logger().Warn("payload not understood", "event_id", env.EventID, "type", env.EventType, "error", err)
	}
	line := Line{
		EventID:       env.EventID,
		EventType:     env.EventType,
		OccurredAt:    env.OccurredAt,
		Producer:      env.Producer,
		TraceID:       env.TraceID,
		CorrelationID: env.CorrelationID,
		Partition:     m.Partition,
		Offset:        m.Offset,
		Summary:       summary,
		Payload:       env.Payload,
	}
	b := kafkax.MustMarshal(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.Out.Write(append(b, '\n'))
	return err
}

// Summarize renders a one-line human description of env's payload.
func Summarize(env feed.Envelope) (string, error) {
	switch env.EventType {
	case orders.EventOrderInserted, orders.EventOrderUpdated:
		p, err := kafkax.UnwrapPayload[orders.OrderChangedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("order %s user=%s lines=%d date=%s", p.OrderID, p.UserID, p.LineCount, p.Date), nil
	case orders.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[orders.OrderDeletedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("order %s deleted", p.OrderID), nil
	case orders.EventLineItemInserted, orders.EventLineItemUpdated, orders.EventLineItemRemoved, orders.EventImageAttached:
		p, err := kafkax.UnwrapPayload[orders.LineItemChangedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("order %s line %s product=%s qty=%d", p.OrderID, p.UniqueKey, p.ProductID, p.Quantity), nil
	case users.EventUserInserted, users.EventUserUpdated:
		p, err := kafkax.UnwrapPayload[users.UserChangedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("user %s %s <%s>", p.UserID, p.Username, p.Email), nil
	case users.EventUserDeleted:
		p, err := kafkax.UnwrapPayload[users.UserDeletedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("user %s deleted", p.UserID), nil
	}
	return env.EventType, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
