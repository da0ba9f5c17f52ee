// Package reminders dispatches due bill reminders on a daily schedule.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/notify"
)

// dispatchSpec fires every day at 09:00 local time.
const dispatchSpec = "0 9 * * *"

// Store is the persistence surface the scheduler needs.
type Store interface {
	ListDueReminders(ctx context.Context, dueDate int) ([]domain.BillReminder, error)
}

// Scheduler runs the daily reminder dispatch.
type Scheduler struct {
	store  Store
	sender notify.Sender
	log    *logrus.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewScheduler creates a scheduler that delivers through the given sender.
func NewScheduler(store Store, sender notify.Sender, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		sender: sender,
		log:    log,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start begins the daily dispatch in the background.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(dispatchSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.DispatchDue(ctx); err != nil {
			s.log.WithError(err).Error("reminder dispatch failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder dispatch: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running dispatch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// DispatchDue sends every enabled reminder due today and returns how many
// went out. On the last day of a short month it also picks up reminders
// whose due day the month does not have, so a bill due on the 31st still
// fires in February.
//
// Individual delivery failures are logged and skipped; one bad phone number
// must not block the rest of the batch.
func (s *Scheduler) DispatchDue(ctx context.Context) (int, error) {
	today := s.now()
	days := []int{today.Day()}
	if lastDay := lastDayOfMonth(today); today.Day() == lastDay {
		for d := lastDay + 1; d <= 31; d++ {
			days = append(days, d)
		}
	}

	sent := 0
	for _, day := range days {
		due, err := s.store.ListDueReminders(ctx, day)
		if err != nil {
			return sent, fmt.Errorf("failed to load reminders due on day %d: %w", day, err)
		}
		for _, r := range due {
			msg := notify.Message{To: r.PhoneNumber, Body: reminderBody(r)}
			if err := s.sender.Send(ctx, msg); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"reminder": r.ID,
					"user":     r.UserID,
				}).Error("failed to send reminder")
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func reminderBody(r domain.BillReminder) string {
	if r.Amount.IsZero() {
		return fmt.Sprintf("Reminder: your %s bill is due today (day %d).", r.ProviderName, r.DueDate)
	}
	return fmt.Sprintf("Reminder: your %s bill of %s EUR is due today (day %d).",
		r.ProviderName, r.Amount.StringFixed(2), r.DueDate)
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
