// Package payments bridges held bookings to the external checkout
// providers. The core engine stays provider-agnostic: each provider only
// implements checkout creation and confirmation resolution, and the shared
// reservation manager performs the actual status transition.
package payments

import (
	"context"
	"errors"
)

var (
	// ErrUnknownProvider is returned for a provider name nothing registered.
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrProviderUnavailable wraps failures talking to the provider. The
	// hold is left pending and expires on its own; the caller may retry the
	// checkout without re-reserving.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrPaymentIncomplete marks a confirmation event whose payment is not
	// (yet) settled. Not an error state for the booking; the hold stands.
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// CheckoutRequest describes the hold a checkout session should collect
// payment for. AmountCents is always integer minor units; providers billing
// in decimal major units convert at their own boundary.
type CheckoutRequest struct {
	BookingID     string
	Description   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

// CheckoutSession is the provider-side session or preference the customer
// is redirected to.
type CheckoutSession struct {
	Provider string `json:"provider"`
	Ref      string `json:"ref"`
	URL      string `json:"url"`
}

// Confirmation is a provider payment event resolved to our booking. One of
// BookingID or ProviderRef identifies the hold, depending on what the
// provider echoes back.
type Confirmation struct {
	BookingID   string
	ProviderRef string
	Paid        bool
}

// CheckoutProvider abstracts one external payment backend.
type CheckoutProvider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	ResolveConfirmation(ctx context.Context, eventRef string) (Confirmation, error)
}
