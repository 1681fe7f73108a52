// Package notify fans a notification out to a set of recipients: durable
// inbox records first, push delivery on top as best effort.
package notify

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/findthemapp/findthem-core/internal/cache"
	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/push"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// Target is a tagged reference to the entity that triggered a notification.
type Target struct {
	Kind db.TargetKind
	ID   uint64
}

// Options carries the optional push-facing parts of a fan-out. Zero values
// fall back to a type-specific title and the record message as body.
type Options struct {
	PushTitle string
	PushBody  string
	PushData  map[string]string
}

// Report summarizes one fan-out for observability. A fan-out never fails as
// a whole; callers that care inspect the counts.
type Report struct {
	Records int
	Pushes  int
}

// Notifier is the fan-out engine.
type Notifier struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	cache         *cache.RedisCache
	sender        push.Sender
	log           *slog.Logger
}

// New builds a Notifier.
func New(
	notifications *repository.NotificationRepository,
	users *repository.UserRepository,
	redis *cache.RedisCache,
	sender push.Sender,
	log *slog.Logger,
) *Notifier {
	return &Notifier{
		notifications: notifications,
		users:         users,
		cache:         redis,
		sender:        sender,
		log:           log,
	}
}

// Send writes one notification record per recipient and attempts push
// delivery to every recipient with a device token.
//
// Behavior:
//   - The record write comes first; the log is authoritative, push is not.
//   - A single recipient's failure (record or push) is logged and the batch
//     continues.
//   - Tokens the push service rejects permanently are cleared in one batched
//     update after the loop; they are never retried.
func (n *Notifier) Send(
	ctx context.Context,
	recipients []db.User,
	message string,
	target *Target,
	typ db.NotificationType,
	opts Options,
) Report {
	var report Report
	var invalidTokens []uint64

	for i := range recipients {
		recipient := &recipients[i]

		record := db.Notification{
			UserID:  recipient.ID,
			Message: message,
			Type:    typ,
		}
		if target != nil {
			record.TargetKind = target.Kind
			record.TargetID = target.ID
		}
		if err := n.notifications.Create(ctx, &record); err != nil {
			n.log.Error("notification record write failed",
				"recipient", recipient.Username, "type", typ, "err", err)
			continue
		}
		report.Records++

		if err := n.cache.IncrUnreadCount(ctx, recipient.ID); err != nil {
			n.log.Warn("unread counter bump failed", "recipient", recipient.Username, "err", err)
		}

		if recipient.DeviceToken == nil || *recipient.DeviceToken == "" {
			n.log.Debug("no device token, skipping push", "recipient", recipient.Username)
			continue
		}

		msg := push.Message{
			Title: opts.PushTitle,
			Body:  opts.PushBody,
			Token: *recipient.DeviceToken,
			Data:  pushData(&record, target, opts.PushData),
		}
		if msg.Title == "" {
			msg.Title = DefaultTitle(typ)
		}
		if msg.Body == "" {
			msg.Body = message
		}

		switch err := n.sender.Send(ctx, msg); {
		case err == nil:
			report.Pushes++
		case push.IsPermanent(err):
			invalidTokens = append(invalidTokens, recipient.ID)
			n.log.Warn("invalid device token", "recipient", recipient.Username, "err", err)
		default:
			n.log.Error("push delivery failed", "recipient", recipient.Username, "err", err)
		}
	}

	if len(invalidTokens) > 0 {
		if err := n.users.ClearDeviceTokens(ctx, invalidTokens); err != nil {
			n.log.Error("device token cleanup failed", "count", len(invalidTokens), "err", err)
		} else {
			n.log.Info("cleared invalid device tokens", "count", len(invalidTokens))
		}
	}

	n.log.Info("fan-out complete",
		"type", typ, "recipients", len(recipients),
		"records", report.Records, "pushes", report.Pushes)

	return report
}

// SendOne is Send for a single recipient.
func (n *Notifier) SendOne(
	ctx context.Context,
	recipient db.User,
	message string,
	target *Target,
	typ db.NotificationType,
	opts Options,
) Report {
	return n.Send(ctx, []db.User{recipient}, message, target, typ, opts)
}

// DefaultTitle maps a notification type to its push title.
func DefaultTitle(typ db.NotificationType) string {
	switch typ {
	case db.TypeCaseUpdate:
		return "Case Update"
	case db.TypeMissingPerson:
		return "New Missing Person"
	case db.TypeLocationRequest:
		return "Location Sharing Request"
	case db.TypeLocationResponse:
		return "Location Request Response"
	case db.TypeLocationAlert:
		return "Location Alert"
	case db.TypeReport:
		return "New Report Received"
	default:
		return "FindThem Notification"
	}
}

// pushData merges caller data with the record/target fields every push
// carries. Values are strings throughout; the push service coerces nothing.
func pushData(record *db.Notification, target *Target, extra map[string]string) map[string]string {
	data := make(map[string]string, len(extra)+4)
	for k, v := range extra {
		data[k] = v
	}
	data["notification_id"] = strconv.FormatUint(record.ID, 10)
	data["notification_type"] = string(record.Type)
	if target != nil {
		data["target_id"] = strconv.FormatUint(target.ID, 10)
		data["target_kind"] = string(target.Kind)
	} else {
		data["target_id"] = ""
		data["target_kind"] = ""
	}
	return data
}
