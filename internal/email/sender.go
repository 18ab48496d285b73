// Package email delivers booking notifications. Sends are asynchronous and
// best effort; a failed email never fails the booking operation it follows.
package email

import "context"

// Sender provides a testable abstraction over SES delivery.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
