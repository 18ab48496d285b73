// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/reservalo/reservalo/internal/api"
	"github.com/reservalo/reservalo/internal/api/availability"
	"github.com/reservalo/reservalo/internal/api/bookings"
	"github.com/reservalo/reservalo/internal/api/centerhours"
	"github.com/reservalo/reservalo/internal/api/courts"
	apipayments "github.com/reservalo/reservalo/internal/api/payments"
	"github.com/reservalo/reservalo/internal/booking"
	"github.com/reservalo/reservalo/internal/config"
	"github.com/reservalo/reservalo/internal/db"
	paybridge "github.com/reservalo/reservalo/internal/payments"
	"github.com/reservalo/reservalo/internal/ratelimit"
)

func newServer(cfg *config.Config, database *db.DB, manager *booking.Manager, bridge *paybridge.Bridge, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	trustProxy := cfg.App.Environment == "production"

	availability.InitHandlers(manager)
	bookings.InitHandlers(manager, bridge, limiter, trustProxy)
	apipayments.InitHandlers(bridge)
	centerhours.InitHandlers(database.Queries)
	courts.InitHandlers(database.Queries)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Availability
	mux.HandleFunc("GET /api/v1/availability", availability.HandleAvailability)

	// Bookings
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleBookingCreate)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleBookingGet)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleBookingCancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/checkout", bookings.HandleBookingCheckout)

	// Payment confirmations
	mux.HandleFunc("GET /api/v1/payments/stripe/confirm", apipayments.HandleStripeConfirm)
	mux.HandleFunc("POST /api/v1/payments/mercadopago/webhook", apipayments.HandleMercadoPagoWebhook)

	// Center administration
	mux.HandleFunc("GET /api/v1/centers/{center_id}/hours", centerhours.HandleHoursList)
	mux.HandleFunc("PUT /api/v1/centers/{center_id}/hours/{day_of_week}", centerhours.HandleHoursUpdate)
	mux.HandleFunc("GET /api/v1/centers/{center_id}/courts", courts.HandleCourtsList)
	mux.HandleFunc("POST /api/v1/centers/{center_id}/courts", courts.HandleCourtCreate)
	mux.HandleFunc("PUT /api/v1/courts/{id}", courts.HandleCourtUpdate)
}
