package payments

import (
	"context"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const stripeProviderName = "stripe"

// StripeProvider creates Checkout Sessions. Stripe bills in integer minor
// units, so amounts pass through unchanged.
type StripeProvider struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func NewStripeProvider(secretKey, successURL, cancelURL string) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{
		api:        api,
		successURL: successURL,
		cancelURL:  cancelURL,
	}, nil
}

func (p *StripeProvider) Name() string { return stripeProviderName }

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(p.successURL),
		CancelURL:     stripe.String(p.cancelURL),
		CustomerEmail: stripe.String(req.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: create stripe session: %v", ErrProviderUnavailable, err)
	}
	return CheckoutSession{
		Provider: stripeProviderName,
		Ref:      sess.ID,
		URL:      sess.URL,
	}, nil
}

// ResolveConfirmation looks the session up again server-side; the redirect
// query parameter alone is never trusted as proof of payment.
func (p *StripeProvider) ResolveConfirmation(ctx context.Context, sessionID string) (Confirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: retrieve stripe session: %v", ErrProviderUnavailable, err)
	}

	return Confirmation{
		BookingID:   sess.Metadata["booking_id"],
		ProviderRef: sess.ID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}
