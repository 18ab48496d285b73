// internal/api/payments/handlers.go
package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/api/apiutil"
	"github.com/reservalo/reservalo/internal/booking"
	paybridge "github.com/reservalo/reservalo/internal/payments"
)

// Includes the provider lookup round trip.
const reconcileTimeout = 15 * time.Second

var (
	bridge     *paybridge.Bridge
	bridgeOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(br *paybridge.Bridge) {
	if br == nil {
		return
	}
	bridgeOnce.Do(func() {
		bridge = br
	})
}

type confirmedResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// GET /api/v1/payments/stripe/confirm?session_id=cs_...
//
// Stripe redirects the customer here after checkout. The session is looked
// up server-side; the query parameter alone never confirms anything.
func HandleStripeConfirm(w http.ResponseWriter, r *http.Request) {
	br := loadBridge()
	if br == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Payments not initialized"})
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "session_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reconcileTimeout)
	defer cancel()

	b, err := br.Reconcile(ctx, "stripe", sessionID)
	if err != nil {
		apiutil.WriteError(w, r, reconcileError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, confirmedResponse{BookingID: b.PublicID, Status: b.Status}); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

type mercadoPagoWebhook struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// POST /api/v1/payments/mercadopago/webhook
//
// Mercado Pago notifies with the payment id; everything else is fetched from
// their API. Non-payment event types are acknowledged and dropped.
func HandleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	br := loadBridge()
	if br == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Payments not initialized"})
		return
	}

	var event mercadoPagoWebhook
	if err := apiutil.DecodeJSON(r, &event); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid webhook body", Err: err})
		return
	}
	if event.Type != "payment" || event.Data.ID == "" {
		log.Ctx(r.Context()).Debug().Str("type", event.Type).Msg("Ignoring mercadopago event")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reconcileTimeout)
	defer cancel()

	b, err := br.Reconcile(ctx, "mercadopago", event.Data.ID)
	if err != nil {
		if errors.Is(err, paybridge.ErrPaymentIncomplete) {
			// Not settled yet. Acknowledge so the retry comes with the final
			// status instead of hammering an error endpoint.
			w.WriteHeader(http.StatusOK)
			return
		}
		apiutil.WriteError(w, r, reconcileError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, confirmedResponse{BookingID: b.PublicID, Status: b.Status}); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

func reconcileError(err error) apiutil.HandlerError {
	switch {
	case errors.Is(err, booking.ErrStaleConfirmation):
		return apiutil.HandlerError{Status: http.StatusGone, Message: "Hold expired before payment completed, refund pending", Err: err}
	case errors.Is(err, booking.ErrBookingNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Err: err}
	case errors.Is(err, paybridge.ErrPaymentIncomplete):
		return apiutil.HandlerError{Status: http.StatusPaymentRequired, Message: "Payment not completed", Err: err}
	case errors.Is(err, paybridge.ErrProviderUnavailable):
		return apiutil.HandlerError{Status: http.StatusBadGateway, Message: "Payment provider unavailable", Err: err}
	case errors.Is(err, booking.ErrStoreUnavailable):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable, please retry", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to reconcile payment", Err: err}
}

func loadBridge() *paybridge.Bridge {
	return bridge
}
