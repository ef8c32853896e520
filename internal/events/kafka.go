package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	applog "milkpoint/internal/log"
)

// KafkaPublisher hands envelopes to a background writer through a bounded
// inbox. A full inbox drops the event instead of blocking the caller.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	if buf <= 0 {
		buf = 1024
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		inbox: make(chan kafka.Message, buf),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is done or Close is called; pending
// messages are flushed before the writer closes.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		defer func() { _ = p.w.Close() }()
		for {
			select {
			case m := <-p.inbox:
				p.write(m)
			case <-ctx.Done():
				p.flush()
				return
			case <-p.stop:
				p.flush()
				return
			}
		}
	}()
}

func (p *KafkaPublisher) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		applog.Warn(nil, "events.kafka.write.fail", err, map[string]any{"key": string(m.Key)})
	}
}

// Publish partitions by aggregate id so every event of one order stays ordered.
func (p *KafkaPublisher) Publish(_ context.Context, e Envelope) {
	b, err := json.Marshal(e)
	if err != nil {
		applog.Error(nil, "events.marshal.fail", err, map[string]any{"event_type": e.EventType})
		return
	}
	m := kafka.Message{
		Key:   []byte(e.CorrelationID),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(e.EventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	select {
	case p.inbox <- m:
	default:
		p.dropped.Add(1)
		applog.Warn(nil, "events.dropped", nil, map[string]any{"event_type": e.EventType, "correlation_id": e.CorrelationID})
	}
}

// Dropped counts events discarded because the inbox was full.
func (p *KafkaPublisher) Dropped() int64 { return p.dropped.Load() }

// Close stops the loop and waits for the flush. Only valid after Start.
func (p *KafkaPublisher) Close() {
	p.once.Do(func() { close(p.stop) })
	<-p.done
}

// LogPublisher writes each event as an info log entry.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Envelope) {
	applog.Info(nil, "event."+e.EventType, map[string]any{
		"event_id":       e.EventID,
		"correlation_id": e.CorrelationID,
		"actor_id":       e.ActorID,
		"payload":        e.Payload,
	})
}
