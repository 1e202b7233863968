package notify

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/jhagel/campushub/backend/internal/tasks"
)

// Dispatcher fans a NotifiableEvent out into one notification row per
// recipient. Dispatch runs detached from the caller; failures are logged per
// recipient and never abort the rest of the batch.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	accounts      repositories.AccountRepository
	groups        repositories.GroupRepository
	renderer      Renderer
	digests       DigestRenderer
	mailer        Mailer
	runner        *tasks.Runner
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher. The renderer must also implement
// DigestRenderer so immediate emails reuse the digest templates.
func NewDispatcher(
	notifications repositories.NotificationRepository,
	accounts repositories.AccountRepository,
	groups repositories.GroupRepository,
	renderer Renderer,
	digests DigestRenderer,
	mailer Mailer,
	runner *tasks.Runner,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		accounts:      accounts,
		groups:        groups,
		renderer:      renderer,
		digests:       digests,
		mailer:        mailer,
		runner:        runner,
		logger:        logger,
	}
}

// Dispatch schedules the fan-out of an event and returns immediately. The
// caller must not assume the notifications exist when Dispatch returns.
func (d *Dispatcher) Dispatch(event *Event) {
	d.runner.Submit("notify."+string(event.Type), func() error {
		return d.process(event)
	})
}

func (d *Dispatcher) process(event *Event) error {
	recipients, err := d.resolveRecipients(event)
	if err != nil {
		return fmt.Errorf("resolve recipients for %s: %w", event.Type, err)
	}

	for i := range recipients {
		recipient := recipients[i]

		// sender == recipient needs no notification
		if event.Sender != nil && recipient.ID == event.Sender.ID {
			continue
		}

		rendered, err := d.renderer.Render(event, &recipient)
		if err != nil {
			d.logger.Error("could not render notification, recipient skipped",
				"event", event.Type, "recipient", recipient.ID, "error", err)
			continue
		}

		notification := &models.Notification{
			SenderID:      event.SenderID(),
			RecipientID:   recipient.ID,
			ReferenceType: event.ReferenceType,
			ReferenceID:   event.ReferenceID,
			Rendered:      rendered,
			TargetURL:     event.TargetURL,
			IsRead:        false,
			IsSent:        false,
		}
		if err := d.notifications.Upsert(notification); err != nil {
			d.logger.Error("could not store notification",
				"event", event.Type, "recipient", recipient.ID, "error", err)
			continue
		}

		if recipient.EmailNotifications == models.EmailImmediatelyAll {
			// detach the send as well; a slow relay must not stall the fan-out
			r := recipient
			d.runner.Submit("notify.email", func() error {
				return d.sendImmediate(&r, event)
			})
		}
	}
	return nil
}

// sendImmediate delivers one freshly created notification by email. The row
// is re-read by its dedup key so the send reflects the latest state; it is
// only marked sent after the mailer reports success.
func (d *Dispatcher) sendImmediate(recipient *models.Account, event *Event) error {
	notification, err := d.notifications.GetByReference(event.ReferenceType, event.ReferenceID, recipient.ID)
	if err != nil {
		return fmt.Errorf("load notification for immediate send: %w", err)
	}
	if notification == nil || notification.IsSent || notification.IsRead {
		return nil
	}

	batch := []models.Notification{*notification}
	if err := sendNotificationsEmail(d.digests, d.mailer, recipient, batch); err != nil {
		// remains unsent; the digest scheduler will pick it up
		return fmt.Errorf("immediate notification email to account %d: %w", recipient.ID, err)
	}
	return d.notifications.MarkSent([]uint{notification.ID})
}

// resolveRecipients turns the event into its concrete recipient list.
func (d *Dispatcher) resolveRecipients(event *Event) ([]models.Account, error) {
	switch {
	case event.Type == GroupNewRequest:
		group, err := d.groups.GetGroupByID(event.GroupID)
		if err != nil {
			return nil, err
		}
		owner, err := d.accounts.GetAccountByID(group.OwnerID)
		if err != nil {
			return nil, err
		}
		return []models.Account{*owner}, nil

	case event.fanOutToGroup():
		group, err := d.groups.GetGroupByID(event.GroupID)
		if err != nil {
			return nil, err
		}
		members, err := d.groups.FindAccountsByGroup(event.GroupID, models.LinkEstablish)
		if err != nil {
			return nil, err
		}
		// the owner is an implicit member without an edge
		owner, err := d.accounts.GetAccountByID(group.OwnerID)
		if err != nil {
			return nil, err
		}
		return append(members, *owner), nil

	default:
		return d.accounts.GetAccountsByIDs(event.RecipientIDs)
	}
}

var tagPattern = regexp.MustCompile("<[^>]*>")

// sendNotificationsEmail renders and sends one email carrying the given
// notifications. Shared by the immediate path and the digest scheduler.
func sendNotificationsEmail(renderer DigestRenderer, mailer Mailer, recipient *models.Account, notifications []models.Notification) error {
	var subject string
	if len(notifications) > 1 {
		subject = fmt.Sprintf("You have %d new notifications", len(notifications))
	} else {
		subject = "New notification: " + tagPattern.ReplaceAllString(notifications[0].Rendered, "")
	}

	plainText, html, err := renderer.RenderDigest(recipient, notifications)
	if err != nil {
		return fmt.Errorf("render notification email: %w", err)
	}

	to := fmt.Sprintf("%s <%s>", recipient.Name, recipient.Email)
	return mailer.Send(subject, to, plainText, html)
}
