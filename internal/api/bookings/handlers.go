// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reservalo/reservalo/internal/api/apiutil"
	"github.com/reservalo/reservalo/internal/booking"
	paybridge "github.com/reservalo/reservalo/internal/payments"
	"github.com/reservalo/reservalo/internal/ratelimit"
	"github.com/reservalo/reservalo/internal/store"
)

const bookingQueryTimeout = 5 * time.Second

var (
	manager      *booking.Manager
	bridge       *paybridge.Bridge
	limiter      *ratelimit.Limiter
	trustProxy   bool
	handlersOnce sync.Once

	validate = validator.New()
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *booking.Manager, br *paybridge.Bridge, rl *ratelimit.Limiter, proxyTrusted bool) {
	if m == nil {
		return
	}
	handlersOnce.Do(func() {
		manager = m
		bridge = br
		limiter = rl
		trustProxy = proxyTrusted
	})
}

type customerPayload struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"omitempty,max=32"`
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

type reserveRequest struct {
	CenterID        int64           `json:"center_id" validate:"required,gt=0"`
	CourtID         int64           `json:"court_id" validate:"required,gt=0"`
	Date            string          `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string          `json:"start_time" validate:"required,datetime=15:04"`
	DurationMinutes int64           `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Customer        customerPayload `json:"customer" validate:"required"`
}

type checkoutRequest struct {
	Provider string `json:"provider" validate:"required,oneof=stripe mercadopago"`
}

type bookingResponse struct {
	ID              string `json:"id"`
	CenterID        int64  `json:"center_id"`
	CourtID         int64  `json:"court_id"`
	Date            string `json:"date"`
	Start           string `json:"start"`
	End             string `json:"end"`
	Status          string `json:"status"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	PaymentProvider string `json:"payment_provider,omitempty"`
}

func toBookingResponse(b store.Booking) bookingResponse {
	resp := bookingResponse{
		ID:          b.PublicID,
		CenterID:    b.CenterID,
		CourtID:     b.CourtID,
		Date:        b.DateKey,
		Start:       b.StartTime.UTC().Format(time.RFC3339),
		End:         b.EndTime.UTC().Format(time.RFC3339),
		Status:      b.Status,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
	}
	if b.Status == booking.StatusPending {
		resp.ExpiresAt = b.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if b.PaymentProvider.Valid {
		resp.PaymentProvider = b.PaymentProvider.String
	}
	return resp
}

// POST /api/v1/bookings
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	m := loadManager()
	if m == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	if limiter != nil {
		ip := ratelimit.GetClientIP(r, trustProxy)
		result := limiter.CheckReserve(r.Context(), ip)
		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter/time.Second)+1))
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "Too many reservation attempts"})
			return
		}
	}

	var req reserveRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if err := validate.Struct(req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: validationMessage(err), Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	created, err := m.Reserve(ctx, booking.ReserveRequest{
		CenterID:        req.CenterID,
		CourtID:         req.CourtID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Customer: booking.Customer{
			Name:   req.Customer.Name,
			Email:  req.Customer.Email,
			Phone:  req.Customer.Phone,
			UserID: req.Customer.UserID,
		},
	})
	if err != nil {
		apiutil.WriteError(w, r, reserveError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, toBookingResponse(created)); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// GET /api/v1/bookings/{id}
func HandleBookingGet(w http.ResponseWriter, r *http.Request) {
	m := loadManager()
	if m == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	publicID := strings.TrimSpace(r.PathValue("id"))
	if publicID == "" {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Booking id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	b, err := m.Get(ctx, publicID)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err, "Failed to load booking"))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b)); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// DELETE /api/v1/bookings/{id}
func HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	m := loadManager()
	if m == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	publicID := strings.TrimSpace(r.PathValue("id"))
	if publicID == "" {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Booking id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	cancelled, err := m.Cancel(ctx, publicID)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err, "Failed to cancel booking"))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(cancelled)); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// POST /api/v1/bookings/{id}/checkout
func HandleBookingCheckout(w http.ResponseWriter, r *http.Request) {
	br := bridge
	if br == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Payments not initialized"})
		return
	}

	publicID := strings.TrimSpace(r.PathValue("id"))
	if publicID == "" {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Booking id is required"})
		return
	}

	var req checkoutRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if err := validate.Struct(req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: validationMessage(err), Err: err})
		return
	}

	// Provider round trip is included, so the timeout is looser here.
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, err := br.CreateCheckout(ctx, publicID, req.Provider)
	if err != nil {
		apiutil.WriteError(w, r, checkoutError(err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, sess); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

func reserveError(err error) apiutil.HandlerError {
	var cfgErr booking.ConfigurationError
	switch {
	case errors.Is(err, booking.ErrSlotAlreadyBooked):
		return apiutil.HandlerError{Status: http.StatusConflict, Message: "Slot already booked", Err: err}
	case errors.Is(err, booking.ErrBookingNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Center or court not found", Err: err}
	case errors.As(err, &cfgErr):
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: cfgErr.Error(), Err: err}
	case errors.Is(err, booking.ErrStoreUnavailable):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable, please retry", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create booking", Err: err}
}

func bookingError(err error, fallback string) apiutil.HandlerError {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Err: err}
	case errors.Is(err, booking.ErrStoreUnavailable):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable, please retry", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: fallback, Err: err}
}

func checkoutError(err error) apiutil.HandlerError {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Err: err}
	case errors.Is(err, booking.ErrHoldExpired):
		return apiutil.HandlerError{Status: http.StatusGone, Message: "Hold expired, reserve again", Err: err}
	case errors.Is(err, paybridge.ErrUnknownProvider):
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Unknown payment provider", Err: err}
	case errors.Is(err, paybridge.ErrProviderUnavailable):
		return apiutil.HandlerError{Status: http.StatusBadGateway, Message: "Payment provider unavailable", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create checkout", Err: err}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return strings.ToLower(fe.Field()) + " failed " + fe.Tag() + " validation"
	}
	return "invalid request"
}

func loadManager() *booking.Manager {
	return manager
}
