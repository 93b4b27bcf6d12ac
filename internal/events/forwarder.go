package events

import (
	"context"
	"sync"
	"time"

	"robot-dispatch/internal/logger"

	"go.uber.org/zap"
)

// Sink delivers an event to an external transport.
type Sink interface {
	Name() string
	Publish(ctx context.Context, evt Event) error
}

// Forwarder subscribes a sink to the bus and publishes off the caller's
// goroutine. When the buffer is full, events are dropped and logged.
type Forwarder struct {
	bus     *EventBus
	sink    Sink
	timeout time.Duration
	queue   chan Event
	subID   SubscriberID
	wg      sync.WaitGroup
	once    sync.Once

	mu      sync.Mutex
	closed  bool
	dropped int64
}

func NewForwarder(bus *EventBus, sink Sink, buffer int, timeout time.Duration) *Forwarder {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		bus:     bus,
		sink:    sink,
		timeout: timeout,
		queue:   make(chan Event, buffer),
	}
}

func (f *Forwarder) Start() {
	f.subID = f.bus.Subscribe(f.enqueue)
	f.wg.Add(1)
	go f.run()
	logger.Info("event forwarder started", zap.String("sink", f.sink.Name()))
}

func (f *Forwarder) enqueue(evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- evt:
	default:
		f.dropped++
		logger.Warn("event dropped, forwarder queue full",
			zap.String("sink", f.sink.Name()),
			zap.String("type", string(evt.Type)),
		)
	}
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for evt := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		if err := f.sink.Publish(ctx, evt); err != nil {
			logger.Warn("event publish failed",
				zap.String("sink", f.sink.Name()),
				zap.String("type", string(evt.Type)),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Dropped returns how many events were discarded on a full queue.
func (f *Forwarder) Dropped() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Stop unsubscribes, then drains whatever is queued.
func (f *Forwarder) Stop() {
	f.once.Do(func() {
		f.bus.Unsubscribe(f.subID)
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()
		f.wg.Wait()
		logger.Info("event forwarder stopped", zap.String("sink", f.sink.Name()))
	})
}
