package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types, one per order transition or ledger mutation.
const (
	EventOrderCreated   = "order_created"
	EventOrderClaimed   = "order_claimed"
	EventOrderCompleted = "order_completed"
	EventOrderApproved  = "order_approved"
	EventOrderRejected  = "order_rejected"
	EventEscrowOpened   = "escrow_opened"
	EventEscrowSettled  = "escrow_settled"
	EventLedgerEntry    = "ledger_entry"
	EventRefundMismatch = "refund_mismatch"
)

type Event struct {
	ID        string
	Type      string
	ActorID   int
	OrderID   string
	EscrowID  string
	LedgerID  string
	Message   string
	CreatedAt time.Time
}

// Sink receives audit events. Implementations must treat events as
// append-only; callers treat emission as best-effort and never fail a
// request because the sink errored.
type Sink interface {
	Record(e Event)
}

type zapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) Sink {
	return &zapSink{log: log}
}

func (s *zapSink) Record(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.log.Info("audit",
		zap.String("event_id", e.ID),
		zap.String("type", e.Type),
		zap.Int("actor_id", e.ActorID),
		zap.String("order_id", e.OrderID),
		zap.String("escrow_id", e.EscrowID),
		zap.String("ledger_id", e.LedgerID),
		zap.String("message", e.Message),
		zap.Time("created_at", e.CreatedAt),
	)
}

// Nop returns a sink that drops everything, used by tests.
func Nop() Sink {
	return &zapSink{log: zap.NewNop()}
}

// MemorySink buffers events in order of arrival so tests can assert on
// what was emitted.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
