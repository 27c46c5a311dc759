package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

type createdPayload struct {
	ID       int64  `json:"id"`
	ItemName string `json:"item_name"`
}

func TestNewEvent_Fields(t *testing.T) {
	data := createdPayload{ID: 42, ItemName: "Laptop"}
	event, err := NewEvent("purchase_order.created", "42", "purchase_order", "purchase-orders", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "purchase_order.created", event.EventType)
	assert.Equal(t, "42", event.AggregateID)
	assert.Equal(t, "purchase_order", event.AggregateType)
	assert.Equal(t, "purchase-orders", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got createdPayload
	require.NoError(t, json.Unmarshal(event.Data, &got))
	assert.Equal(t, data, got)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("purchase_order.created", "1", "purchase_order", "svc", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purchase_order.created")
}

func TestEvent_Marshal(t *testing.T) {
	original, err := NewEvent("purchase_order.deleted", "7", "purchase_order", "purchase-orders", map[string]int64{"id": 7})
	require.NoError(t, err)
	original.WithCorrelationID("corr-abc")

	raw, err := original.Marshal()
	require.NoError(t, err)

	var restored Event
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-abc", restored.CorrelationID)
	assert.JSONEq(t, `{"id":7}`, string(restored.Data))
	assert.WithinDuration(t, original.Timestamp, restored.Timestamp, time.Millisecond)
}

func TestTopic(t *testing.T) {
	tests := []struct {
		aggregate, action, want string
	}{
		{"purchase_order", "created", "purchase_orders.purchase_order.created"},
		{"purchase_order", "deleted", "purchase_orders.purchase_order.deleted"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Topic(tt.aggregate, tt.action))
		})
	}
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"broker1:9092", "broker2:9092"})

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.Async)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, nil)
	topic := Topic("purchase_order", "created")
	before := testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic))

	event, err := NewEvent("purchase_order.created", "42", "purchase_order", "purchase-orders", createdPayload{ID: 42})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), topic, event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, "42", string(msg.Key))

	headers := headerMap(msg.Headers)
	assert.Equal(t, "purchase_order.created", headers["event_type"])
	assert.Equal(t, "purchase-orders", headers["source"])
	assert.Equal(t, "corr-1", headers["correlation_id"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)

	assert.InDelta(t, before+1, testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic)), 0.001)
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "create purchase order")
	defer span.End()

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, nil)
	event, err := NewEvent("purchase_order.created", "1", "purchase_order", "svc", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("purchase_order", "created"), event))

	require.Len(t, w.msgs, 1)
	traceparent := headerMap(w.msgs[0].Headers)["traceparent"]
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
}

func TestProducer_Publish_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := NewProducerWithWriter(w, nil, nil)
	topic := "purchase_orders.test.publish-error"

	event, err := NewEvent("purchase_order.deleted", "9", "purchase_order", "svc", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), topic, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), topic)
	assert.ErrorIs(t, err, w.err)
	assert.InDelta(t, 1, testutil.ToFloat64(ProducerPublishErrors.WithLabelValues(topic)), 0.001)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	for _, brokers := range [][]string{nil, {}} {
		err := PingBrokers(t.Context(), brokers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no brokers configured")
	}
}
