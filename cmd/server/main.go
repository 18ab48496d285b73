// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/reservalo/reservalo/internal/booking"
	"github.com/reservalo/reservalo/internal/config"
	"github.com/reservalo/reservalo/internal/db"
	"github.com/reservalo/reservalo/internal/email"
	"github.com/reservalo/reservalo/internal/payments"
	"github.com/reservalo/reservalo/internal/ratelimit"
	"github.com/reservalo/reservalo/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	manager := booking.NewManager(database, time.Duration(cfg.Booking.HoldExpiryMinutes)*time.Minute)

	bridge, err := buildBridge(cfg, database, manager)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure payments")
	}

	rdb := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	var limiter *ratelimit.Limiter
	if rdb != nil {
		defer rdb.Close()
		limitCfg := ratelimit.DefaultConfig()
		if cfg.RateLimit.ReservePerMinute > 0 {
			limitCfg.MaxPerWindow = cfg.RateLimit.ReservePerMinute
		}
		limiter = ratelimit.New(rdb, limitCfg)
	}

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if cfg.Booking.SweepCron != "" {
		if err := scheduler.RegisterHoldSweep(cfg.Booking.SweepCron, database); err != nil {
			log.Fatal().Err(err).Msg("Failed to register hold sweep")
		}
	}

	server := newServer(cfg, database, manager, bridge, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("scheduler error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

// buildBridge wires the configured payment providers. Missing credentials
// disable a provider rather than failing startup, so a sandbox can run with
// only one of the two.
func buildBridge(cfg *config.Config, database *db.DB, manager *booking.Manager) (*payments.Bridge, error) {
	var providers []payments.CheckoutProvider

	if cfg.Payments.StripeSecretKey != "" {
		stripe, err := payments.NewStripeProvider(
			cfg.Payments.StripeSecretKey,
			cfg.Payments.CheckoutSuccessURL,
			cfg.Payments.CheckoutCancelURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, stripe)
	} else {
		log.Warn().Msg("Stripe disabled, no secret key configured")
	}

	if cfg.Payments.MercadoPagoToken != "" {
		mp, err := payments.NewMercadoPagoProvider(
			cfg.Payments.MercadoPagoToken,
			cfg.Payments.CheckoutSuccessURL,
			cfg.Payments.CheckoutCancelURL,
			cfg.Payments.WebhookNotificationURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, mp)
	} else {
		log.Warn().Msg("Mercado Pago disabled, no access token configured")
	}

	var notifier payments.Notifier
	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			return nil, err
		}
		notifier = email.NewConfirmationNotifier(database, sesClient)
	}

	return payments.NewBridge(manager, notifier, providers...), nil
}
