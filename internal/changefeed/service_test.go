package changefeed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-overlay/internal/feed"
	kafkax "github.com/ariefcatur/go-order-overlay/internal/kafka"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

type memDedup map[string]bool

func (m memDedup) FirstSeen(_ context.Context, id string) (bool, error) {
	if m[id] {
		return false, nil
	}
	m[id] = true
	return true, nil
}

type failingDedup struct{}

func (failingDedup) FirstSeen(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	ctx := feed.WithTrace(context.Background(), "req-1")
	env, err := feed.NewEnvelope(ctx, "order-overlay", eventType, "7", payload)
	require.NoError(t, err)
	return kafkago.Message{Value: kafkax.MustMarshal(env), Partition: 2, Offset: 41}
}

func lines(t *testing.T, buf *bytes.Buffer) []Line {
	t.Helper()
	var out []Line
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var l Line
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		out = append(out, l)
	}
	return out
}

func TestHandleChangePrintsOnceDespiteRedelivery(t *testing.T) {
	var buf bytes.Buffer
	s := &Service{Dedup: memDedup{}, Out: &buf}
	ctx := context.Background()

	m := message(t, orders.EventOrderInserted, orders.OrderChangedPayload{OrderID: 7, UserID: 2, LineCount: 3, Date: "2025-03-04T10:11:12.345Z"})
	require.NoError(t, s.HandleChange(ctx, m))
	require.NoError(t, s.HandleChange(ctx, m))

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, orders.EventOrderInserted, got[0].EventType)
	assert.Equal(t, "req-1", got[0].TraceID)
	assert.Equal(t, 2, got[0].Partition)
	assert.Equal(t, int64(41), got[0].Offset)
	assert.Equal(t, "order 7 user=2 lines=3 date=2025-03-04T10:11:12.345Z", got[0].Summary)
}

func TestHandleChangeSkipsPoisonMessages(t *testing.T) {
	var buf bytes.Buffer
	s := &Service{Out: &buf}
	require.NoError(t, s.HandleChange(context.Background(), kafkago.Message{Value: []byte("{nope")}))
	assert.Zero(t, buf.Len())
}

func TestHandleChangeReturnsDedupErrors(t *testing.T) {
	var buf bytes.Buffer
	s := &Service{Dedup: failingDedup{}, Out: &buf}
	err := s.HandleChange(context.Background(), message(t, users.EventUserDeleted, users.UserDeletedPayload{UserID: 3}))
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		typ     string
		payload any
		want    string
	}{
		{orders.EventOrderDeleted, orders.OrderDeletedPayload{OrderID: 9}, "order 9 deleted"},
		{orders.EventLineItemUpdated, orders.LineItemChangedPayload{OrderID: 1, UniqueKey: "1-2-0-5-abc", ProductID: 2, Quantity: 4}, "order 1 line 1-2-0-5-abc product=2 qty=4"},
		{users.EventUserInserted, users.UserChangedPayload{UserID: 4, Username: "kevin", Email: "kevin@gmail.com"}, "user 4 kevin <kevin@gmail.com>"},
		{users.EventUserDeleted, users.UserDeletedPayload{UserID: 4}, "user 4 deleted"},
		{"SomethingElse", map[string]int{"x": 1}, "SomethingElse"},
	}
	for _, tc := range cases {
		env, err := feed.NewEnvelope(context.Background(), "p", tc.typ, "", tc.payload)
		require.NoError(t, err)
		got, err := Summarize(env)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.typ)
	}
}
