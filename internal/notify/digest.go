package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/robfig/cron/v3"
)

// DigestScheduler batches unsent, unread notifications into one email per
// recipient on the recipient's cadence: hourly subscribers on every tick at
// the top of the hour, daily subscribers when their chosen hour comes around.
type DigestScheduler struct {
	notifications repositories.NotificationRepository
	renderer      DigestRenderer
	mailer        Mailer
	logger        *slog.Logger
	now           func() time.Time

	cron *cron.Cron
}

// NewDigestScheduler creates a DigestScheduler.
func NewDigestScheduler(
	notifications repositories.NotificationRepository,
	renderer DigestRenderer,
	mailer Mailer,
	logger *slog.Logger,
) *DigestScheduler {
	return &DigestScheduler{
		notifications: notifications,
		renderer:      renderer,
		mailer:        mailer,
		logger:        logger,
		now:           time.Now,
	}
}

// Start schedules the digest job at the top of every hour and begins running.
func (s *DigestScheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 * * * *", s.Tick); err != nil {
		return fmt.Errorf("schedule digest job: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron schedule; a tick already in flight runs to completion.
func (s *DigestScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick runs one digest pass for the current hour.
func (s *DigestScheduler) Tick() {
	hour := s.now().Hour()

	recipients, err := s.notifications.FindDigestRecipients(hour)
	if err != nil {
		s.logger.Error("could not load digest recipients", "error", err)
		return
	}

	for i := range recipients {
		recipient := recipients[i]
		if err := s.sendDigest(&recipient); err != nil {
			// the batch stays unsent and is retried on the next matching tick
			s.logger.Error("could not send digest", "recipient", recipient.ID, "error", err)
		}
	}
}

// sendDigest emails one recipient's pending notifications and marks the whole
// batch sent in a single update, but only after the mailer reported success.
func (s *DigestScheduler) sendDigest(recipient *models.Account) error {
	notifications, err := s.notifications.FindUnsentUnread(recipient.ID)
	if err != nil {
		return fmt.Errorf("load pending notifications: %w", err)
	}
	if len(notifications) == 0 {
		return nil
	}

	if err := sendNotificationsEmail(s.renderer, s.mailer, recipient, notifications); err != nil {
		return err
	}

	ids := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}
	if err := s.notifications.MarkSent(ids); err != nil {
		return fmt.Errorf("mark digest batch sent: %w", err)
	}

	s.logger.Info("digest sent", "recipient", recipient.ID, "notifications", len(ids))
	return nil
}
