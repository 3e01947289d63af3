package payment

import (
	"context"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type StripeProcessor struct {
	client *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{client: sc}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := p.client.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}

	return fromStripeIntent(pi), nil
}

func (p *StripeProcessor) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	pi, err := p.client.PaymentIntents.Get(intentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, err
	}

	return fromStripeIntent(pi), nil
}

func (p *StripeProcessor) Refund(ctx context.Context, intentID string, amountCents int64) (string, error) {
	ref, err := p.client.Refunds.New(&stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountCents),
	})
	if err != nil {
		return "", err
	}

	return ref.ID, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	status := IntentStatusPending
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		status = IntentStatusCanceled
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       status,
		Metadata:     pi.Metadata,
	}
}
