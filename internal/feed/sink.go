package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-order-overlay/internal/kafka"
)

// Sink receives change events after a mutation has been persisted.
// Emit must not block on I/O.
type Sink interface {
	Emit(ctx context.Context, eventType, correlationID string, payload any)
}

type traceKey struct{}

// WithTrace attaches a trace id (usually the request id) to ctx.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceFrom(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}

// NewEnvelope builds a v1 envelope around payload.
func NewEnvelope(ctx context.Context, producer, eventType, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceFrom(ctx),
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

type Nop struct{}

func (Nop) Emit(context.Context, string, string, any) {}

// KafkaSink publishes envelopes through the async producer.
type KafkaSink struct {
	Producer *kafkax.Producer
	Service  string
	Log      *slog.Logger
}

func (s *KafkaSink) Emit(ctx context.Context, eventType, correlationID string, payload any) {
	ev, err := NewEnvelope(ctx, s.Service, eventType, correlationID, payload)
	if err != nil {
		s.logger().Error("encode change event", "type", eventType, "error", err)
		return
	}
	s.Producer.Publish(PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(EventVersion))},
	)
}

func (s *KafkaSink) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Recorder keeps envelopes in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Emit(ctx context.Context, eventType, correlationID string, payload any) {
	ev, err := NewEnvelope(ctx, "recorder", eventType, correlationID, payload)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}

// Types lists event types in emission order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
