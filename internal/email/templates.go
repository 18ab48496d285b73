package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

// ConfirmationDetails carries everything the booking confirmation template
// renders. Amount is formatted by the caller so currency handling stays in
// one place.
type ConfirmationDetails struct {
	CenterName string
	CourtName  string
	Date       string
	TimeRange  string
	Amount     string
	BookingID  string
}

// FormatDateTimeRange renders a booking window for email bodies. Times must
// already be in the center's zone.
func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

// FormatAmount renders integer minor units as a major-unit decimal with the
// currency code, e.g. 4500 USD -> "45.00 USD".
func FormatAmount(amountCents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amountCents/100, amountCents%100, strings.ToUpper(currency))
}

func BuildBookingConfirmation(details ConfirmationDetails) Message {
	centerName := strings.TrimSpace(details.CenterName)
	if centerName == "" {
		centerName = "your center"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "TBD"
	}

	subject := fmt.Sprintf("Court Reservation Confirmed - %s", centerName)

	lines := []string{
		"Your court reservation is confirmed.",
		"",
		fmt.Sprintf("Center: %s", centerName),
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
		fmt.Sprintf("Amount paid: %s", strings.TrimSpace(details.Amount)),
		fmt.Sprintf("Booking reference: %s", strings.TrimSpace(details.BookingID)),
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}
