// Package events publishes domain events after a transaction commits.
// Publishing is fire-and-forget: it never blocks or fails a business operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated         = "OrderCreated"
	TypeOrderItemsChanged    = "OrderItemsChanged"
	TypeOrderStatusChanged   = "OrderStatusChanged"
	TypePaymentStatusChanged = "PaymentStatusChanged"
	TypeStockAdjusted        = "StockAdjusted"
	TypeProductSaved         = "ProductSaved"
	TypeProductDeleted       = "ProductDeleted"
	TypeUserRoleChanged      = "UserRoleChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // aggregate id
	ActorID       string          `json:"actor_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// New wraps payload into a versioned envelope keyed by the aggregate id.
func New(eventType, aggregateID, actorID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "milkpoint-core",
		CorrelationID: aggregateID,
		ActorID:       actorID,
		Payload:       b,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Envelope)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) {}

// Recorder keeps events in memory; handy in tests.
type Recorder struct {
	ch chan Envelope
}

func NewRecorder(size int) *Recorder { return &Recorder{ch: make(chan Envelope, size)} }

func (r *Recorder) Publish(_ context.Context, e Envelope) {
	select {
	case r.ch <- e:
	default:
	}
}

// Drain returns every event recorded so far.
func (r *Recorder) Drain() []Envelope {
	var out []Envelope
	for {
		select {
		case e := <-r.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}
