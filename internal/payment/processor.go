package payment

import "context"

// Intent is the processor-neutral view of a payment intent. Metadata
// round-trips the key/value pairs supplied at creation; callers use it
// to verify what a succeeded intent was created for.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
}

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusCanceled  IntentStatus = "canceled"
)

// Processor is the external payment service. Implementations are
// expected to be idempotent on intent creation when the same
// idempotency key is supplied.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	// Refund returns the processor-side refund id.
	Refund(ctx context.Context, intentID string, amountCents int64) (string, error)
}
