// Package payments holds payment service provider integrations.
package payments

import (
	"context"

	"github.com/pkg/errors"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"dogwalk/internal/service"
)

// StripePSP holds booking payments on Stripe PaymentIntents with manual
// capture: the owner's card is authorized at reservation time and captured
// when the walk finishes.
type StripePSP struct {
	intents  paymentintent.Client
	currency string
}

var _ service.PSP = (*StripePSP)(nil)

// NewStripePSP returns a PSP charging in currency against the live Stripe API.
func NewStripePSP(apiKey, currency string) *StripePSP {
	return newStripePSP(stripe.GetBackend(stripe.APIBackend), apiKey, currency)
}

func newStripePSP(backend stripe.Backend, apiKey, currency string) *StripePSP {
	return &StripePSP{
		intents:  paymentintent.Client{B: backend, Key: apiKey},
		currency: currency,
	}
}

// Charge creates and confirms a manual-capture PaymentIntent against the
// owner's payment method. The idempotency key makes retried holds for the
// same booking return the original intent.
func (s *StripePSP) Charge(ctx context.Context, req service.ChargeRequest) (string, error) {
	if req.PaymentMethod == "" {
		return "", errors.New("stripe charge: payment method required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(s.currency),
		PaymentMethod:      stripe.String(req.PaymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:            stripe.Bool(true),
	}
	if req.Customer != "" {
		params.Customer = stripe.String(req.Customer)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := s.intents.New(params)
	if err != nil {
		return "", errors.Wrap(err, "stripe create payment intent")
	}
	if pi.Status != stripe.PaymentIntentStatusRequiresCapture {
		return "", errors.Errorf("stripe payment intent %s: status %s", pi.ID, pi.Status)
	}
	return pi.ID, nil
}

// Capture collects the held amount.
func (s *StripePSP) Capture(ctx context.Context, paymentRef, idempotencyKey string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	pi, err := s.intents.Capture(paymentRef, params)
	if err != nil {
		return errors.Wrap(err, "stripe capture payment intent")
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded && pi.Status != stripe.PaymentIntentStatusProcessing {
		return errors.Errorf("stripe payment intent %s: status %s after capture", pi.ID, pi.Status)
	}
	return nil
}

// Cancel releases the hold on an uncaptured intent.
func (s *StripePSP) Cancel(ctx context.Context, paymentRef string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := s.intents.Cancel(paymentRef, params)
	return errors.Wrap(err, "stripe cancel payment intent")
}
