package payments

import (
	"context"
	"fmt"
	"strconv"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

const mercadoPagoProviderName = "mercadopago"

// mpPaymentApproved is the settled status on Mercado Pago payment objects.
const mpPaymentApproved = "approved"

// MercadoPagoProvider creates checkout preferences. Mercado Pago bills in
// decimal major units, so the integer cents amount is converted here and
// nowhere else.
type MercadoPagoProvider struct {
	preferences preference.Client
	payments    payment.Client
	successURL  string
	failureURL  string
	notifyURL   string
}

func NewMercadoPagoProvider(accessToken, successURL, failureURL, notifyURL string) (*MercadoPagoProvider, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPagoProvider{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		successURL:  successURL,
		failureURL:  failureURL,
		notifyURL:   notifyURL,
	}, nil
}

func (p *MercadoPagoProvider) Name() string { return mercadoPagoProviderName }

func (p *MercadoPagoProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	pref, err := p.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      req.Description,
				Quantity:   1,
				UnitPrice:  float64(req.AmountCents) / 100,
				CurrencyID: req.Currency,
			},
		},
		// Confirmation webhooks echo this back, so the payment can be
		// matched to the hold without storing the payment id up front.
		ExternalReference: req.BookingID,
		NotificationURL:   p.notifyURL,
		BackURLs: &preference.BackURLsRequest{
			Success: p.successURL,
			Failure: p.failureURL,
			Pending: p.successURL,
		},
	})
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: create mercadopago preference: %v", ErrProviderUnavailable, err)
	}
	return CheckoutSession{
		Provider: mercadoPagoProviderName,
		Ref:      pref.ID,
		URL:      pref.InitPoint,
	}, nil
}

// ResolveConfirmation fetches the payment named by a webhook's data.id and
// maps it back to the booking through the external reference.
func (p *MercadoPagoProvider) ResolveConfirmation(ctx context.Context, paymentID string) (Confirmation, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("invalid mercadopago payment id %q", paymentID)
	}

	pay, err := p.payments.Get(ctx, id)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: retrieve mercadopago payment: %v", ErrProviderUnavailable, err)
	}

	return Confirmation{
		BookingID:   pay.ExternalReference,
		ProviderRef: paymentID,
		Paid:        pay.Status == mpPaymentApproved,
	}, nil
}
