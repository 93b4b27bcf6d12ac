package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFiltersByType(t *testing.T) {
	bus := NewEventBus()

	var all, orders []Type
	bus.Subscribe(func(e Event) { all = append(all, e.Type) })
	bus.SubscribeTypes(func(e Event) { orders = append(orders, e.Type) }, OrderAssigned, OrderCancelled)

	bus.Emit(Event{Type: OrderAssigned})
	bus.Emit(Event{Type: RobotStatusChanged})
	bus.Emit(Event{Type: OrderCancelled})

	assert.Equal(t, []Type{OrderAssigned, RobotStatusChanged, OrderCancelled}, all)
	assert.Equal(t, []Type{OrderAssigned, OrderCancelled}, orders)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	count := 0
	id := bus.Subscribe(func(Event) { count++ })

	bus.Emit(Event{Type: PhaseReported})
	bus.Unsubscribe(id)
	bus.Emit(Event{Type: PhaseReported})

	assert.Equal(t, 1, count)
}

func TestEventBusStampsTimestamp(t *testing.T) {
	bus := NewEventBus()
	var got Event
	bus.Subscribe(func(e Event) { got = e })

	bus.Emit(Event{Type: OrderCreated})
	assert.False(t, got.Timestamp.IsZero())
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, Nop, OrEmpty(nil))
	bus := NewEventBus()
	assert.Equal(t, Emitter(bus), OrEmpty(bus))
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestMQTTSinkPublishesToTypedTopic(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewMQTTSink(pub, "dispatch/", 1)

	orderID := uuid.New()
	err := sink.Publish(context.Background(), Event{
		Type:    OrderAssigned,
		Key:     orderID.String(),
		Payload: OrderAssignedEvent{OrderID: orderID, RobotID: uuid.New(), Status: "Processing"},
	})
	require.NoError(t, err)

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "dispatch/events/order.assigned", pub.topics[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "order.assigned", decoded["type"])
	assert.Equal(t, orderID.String(), decoded["key"])
}

func TestMQTTSinkWrapsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("not connected")}
	sink := NewMQTTSink(pub, "dispatch", 0)

	err := sink.Publish(context.Background(), Event{Type: PhaseReported})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestKafkaSinkKeysByEventKey(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w, "dispatch-events")

	err := sink.Publish(context.Background(), Event{Type: OrderCancelled, Key: "order-1"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("order-1"), w.msgs[0].Key)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "order.cancelled", string(w.msgs[0].Headers[0].Value))
}

func TestForwarderDeliversAndDrainsOnStop(t *testing.T) {
	bus := NewEventBus()
	w := &fakeWriter{}
	fwd := NewForwarder(bus, NewKafkaSink(w, "t"), 16, time.Second)
	fwd.Start()

	for i := 0; i < 5; i++ {
		bus.Emit(Event{Type: OrderCreated, Key: "o"})
	}
	fwd.Stop()

	assert.Equal(t, 5, w.count())

	// events after Stop are ignored
	bus.Emit(Event{Type: OrderCreated})
	assert.Equal(t, 5, w.count())
}

func TestForwarderSurvivesSinkErrors(t *testing.T) {
	bus := NewEventBus()
	w := &fakeWriter{err: errors.New("broker down")}
	fwd := NewForwarder(bus, NewKafkaSink(w, "t"), 4, time.Second)
	fwd.Start()

	bus.Emit(Event{Type: OrderCreated})
	fwd.Stop()

	assert.Zero(t, w.count())
}
