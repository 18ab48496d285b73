package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservalo/reservalo/internal/db"
	"github.com/reservalo/reservalo/internal/store"
)

const confirmationEmailTimeout = 5 * time.Second

// ConfirmationNotifier sends the booking confirmation email after a payment
// reconciles. The send runs in its own goroutine on a detached context; the
// confirmation transaction has already committed and never waits on SES.
type ConfirmationNotifier struct {
	database *db.DB
	sender   Sender
}

func NewConfirmationNotifier(database *db.DB, sender Sender) *ConfirmationNotifier {
	return &ConfirmationNotifier{database: database, sender: sender}
}

func (n *ConfirmationNotifier) BookingConfirmed(ctx context.Context, b store.Booking) {
	if n == nil || n.sender == nil {
		return
	}
	recipient := strings.TrimSpace(b.CustomerEmail)
	if recipient == "" {
		return
	}

	logger := log.Ctx(ctx)

	center, err := n.database.Queries.GetCenterByID(ctx, b.CenterID)
	if err != nil {
		logger.Error().Err(err).Str("booking_id", b.PublicID).Msg("Failed to load center for confirmation email")
		return
	}
	court, err := n.database.Queries.GetCourtByID(ctx, b.CourtID)
	if err != nil {
		logger.Error().Err(err).Str("booking_id", b.PublicID).Msg("Failed to load court for confirmation email")
		return
	}

	loc, err := time.LoadLocation(center.Timezone)
	if err != nil {
		loc = time.UTC
	}
	date, timeRange := FormatDateTimeRange(b.StartTime.In(loc), b.EndTime.In(loc))

	msg := BuildBookingConfirmation(ConfirmationDetails{
		CenterName: center.Name,
		CourtName:  court.Name,
		Date:       date,
		TimeRange:  timeRange,
		Amount:     FormatAmount(b.AmountCents, b.Currency),
		BookingID:  b.PublicID,
	})

	go func() {
		sendCtx, cancel := newEmailContext(ctx, confirmationEmailTimeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send confirmation email")
		}
	}()
}
