// services/mailer.go - Outbound mail collaborator
package services

import "log"

// Mailer delivers out-of-band messages to users. Implementations must be
// safe to call from a goroutine: delivery is fire-and-forget and never
// participates in a database transaction.
type Mailer interface {
	Send(to, subject, body string)
}

// LogMailer writes messages to the application log. It stands in for a
// real delivery channel in development and tests.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) {
	log.Printf("📧 mail to %s: %s: %s", to, subject, body)
}
