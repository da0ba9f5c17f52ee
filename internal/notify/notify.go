// Package notify delivers bill reminder messages.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// MinLeadTime is the shortest notice a scheduled notification may give.
	MinLeadTime = 5 * time.Minute
	// MaxLeadTime bounds how far ahead a notification may be scheduled;
	// a month plus a few days of slack covers every due-date cycle.
	MaxLeadTime = 35 * 24 * time.Hour
)

// Message is one notification to deliver.
type Message struct {
	To   string
	Body string
}

// Sender delivers a message. Implementations are SMS gateways in
// production and fakes in tests.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ValidateSchedule checks that a notification scheduled for sendAt gives
// acceptable notice relative to now.
func ValidateSchedule(now, sendAt time.Time) error {
	lead := sendAt.Sub(now)
	if lead < MinLeadTime {
		return fmt.Errorf("notification must be scheduled at least %s ahead, got %s", MinLeadTime, lead)
	}
	if lead > MaxLeadTime {
		return fmt.Errorf("notification must be scheduled at most %s ahead, got %s", MaxLeadTime, lead)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It is
// the default sender when no SMS gateway is configured.
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a sender that logs deliveries.
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message and reports success.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if msg.To == "" {
		return fmt.Errorf("message recipient cannot be empty")
	}
	s.log.WithFields(logrus.Fields{
		"to":   msg.To,
		"body": msg.Body,
	}).Info("sms notification (log only)")
	return nil
}
