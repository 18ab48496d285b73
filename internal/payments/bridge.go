package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/booking"
	"github.com/reservalo/reservalo/internal/store"
)

// Notifier is told about bookings that reached confirmed. Implementations
// must not block reconciliation; delivery failures are their own problem.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b store.Booking)
}

// Bridge connects the reservation manager to the registered checkout
// providers. It never transitions booking status itself; every confirmation
// goes through the manager's compare-and-set path, so a provider event can
// never resurrect an expired or cancelled hold.
type Bridge struct {
	manager   *booking.Manager
	providers map[string]CheckoutProvider
	notifier  Notifier
}

func NewBridge(manager *booking.Manager, notifier Notifier, providers ...CheckoutProvider) *Bridge {
	byName := make(map[string]CheckoutProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Bridge{
		manager:   manager,
		providers: byName,
		notifier:  notifier,
	}
}

// Providers lists the registered provider names.
func (br *Bridge) Providers() []string {
	names := make([]string, 0, len(br.providers))
	for name := range br.providers {
		names = append(names, name)
	}
	return names
}

// CreateCheckout opens a provider checkout session for a live pending hold.
// An expired or already-settled hold gets booking.ErrHoldExpired; the
// customer has to reserve again.
func (br *Bridge) CreateCheckout(ctx context.Context, publicID, providerName string) (CheckoutSession, error) {
	provider, ok := br.providers[providerName]
	if !ok {
		return CheckoutSession{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	b, err := br.manager.Get(ctx, publicID)
	if err != nil {
		return CheckoutSession{}, err
	}
	if b.Status != booking.StatusPending || !booking.IsActive(b, br.manager.Now()) {
		return CheckoutSession{}, booking.ErrHoldExpired
	}

	sess, err := provider.CreateCheckout(ctx, CheckoutRequest{
		BookingID:     b.PublicID,
		Description:   checkoutDescription(b),
		AmountCents:   b.AmountCents,
		Currency:      b.Currency,
		CustomerEmail: b.CustomerEmail,
	})
	if err != nil {
		return CheckoutSession{}, err
	}

	// Recording the ref is best effort. If it fails the hold simply expires
	// unconfirmed; Mercado Pago reconciles by booking id anyway, and a lost
	// Stripe session just means the customer reserves again.
	if err := br.manager.AttachPaymentRef(ctx, b.ID, sess.Provider, sess.Ref); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("booking_id", b.PublicID).
			Str("provider", sess.Provider).
			Msg("Failed to record payment ref on hold")
	}

	log.Ctx(ctx).Info().
		Str("booking_id", b.PublicID).
		Str("provider", sess.Provider).
		Str("ref", sess.Ref).
		Msg("Checkout session created")
	return sess, nil
}

// Reconcile turns a provider payment event into a booking confirmation.
// Unpaid events return ErrPaymentIncomplete and change nothing. A paid event
// for a hold that meanwhile expired or was cancelled propagates
// booking.ErrStaleConfirmation after flagging the payment for refund.
func (br *Bridge) Reconcile(ctx context.Context, providerName, eventRef string) (store.Booking, error) {
	provider, ok := br.providers[providerName]
	if !ok {
		return store.Booking{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	conf, err := provider.ResolveConfirmation(ctx, eventRef)
	if err != nil {
		return store.Booking{}, err
	}
	if !conf.Paid {
		return store.Booking{}, ErrPaymentIncomplete
	}

	var b store.Booking
	if conf.BookingID != "" {
		b, err = br.manager.ConfirmByPublicID(ctx, conf.BookingID)
	} else {
		b, err = br.manager.Confirm(ctx, providerName, conf.ProviderRef)
	}
	if err != nil {
		if errors.Is(err, booking.ErrStaleConfirmation) {
			// The customer paid for a hold that no longer exists. The slot
			// stays free for whoever holds it now; ops must refund.
			log.Ctx(ctx).Error().
				Str("provider", providerName).
				Str("ref", conf.ProviderRef).
				Str("booking_id", conf.BookingID).
				Msg("Payment received for dead hold, refund required")
		}
		return store.Booking{}, err
	}

	if br.notifier != nil {
		br.notifier.BookingConfirmed(ctx, b)
	}

	log.Ctx(ctx).Info().
		Str("booking_id", b.PublicID).
		Str("provider", providerName).
		Msg("Booking confirmed")
	return b, nil
}

func checkoutDescription(b store.Booking) string {
	return fmt.Sprintf("Court reservation %s %s", b.DateKey, b.StartTime.Format("15:04"))
}
