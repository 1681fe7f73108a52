package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
)

// NotificationRepository persists the durable notification log. Dedup for
// one-shot event types is a pre-insert existence check, so callers must
// check-then-create; with concurrent fan-outs a duplicate can slip through
// the window, which is acceptable for inbox entries.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// Create appends a notification record.
func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return svcErr.Map(r.db.WithContext(ctx).Create(n).Error)
}

// ExistsForUserTarget reports whether the recipient already has a
// notification of this type for the given target.
func (r *NotificationRepository) ExistsForUserTarget(
	ctx context.Context,
	userID uint64,
	kind db.TargetKind,
	targetID uint64,
	typ db.NotificationType,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ? AND type = ?",
			userID, kind, targetID, typ).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Map(err)
	}
	return count > 0, nil
}

// ExistsForTarget reports whether any notification of this type exists for
// the given target, regardless of recipient. Used to make whole broadcasts
// idempotent against event replays.
func (r *NotificationRepository) ExistsForTarget(
	ctx context.Context,
	kind db.TargetKind,
	targetID uint64,
	typ db.NotificationType,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("target_kind = ? AND target_id = ? AND type = ?", kind, targetID, typ).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Map(err)
	}
	return count > 0, nil
}

// ExistsWithMessage is ExistsForUserTarget narrowed further by a message
// substring. Needed where the same target legitimately produces different
// notifications and only one particular wording must not repeat.
func (r *NotificationRepository) ExistsWithMessage(
	ctx context.Context,
	userID uint64,
	kind db.TargetKind,
	targetID uint64,
	typ db.NotificationType,
	substring string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ? AND type = ? AND message LIKE ?",
			userID, kind, targetID, typ, "%"+substring+"%").
		Count(&count).Error
	if err != nil {
		return false, svcErr.Map(err)
	}
	return count > 0, nil
}

// ListForUser returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64, limit int) ([]db.Notification, error) {
	var notifications []db.Notification
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread count. Fallback path behind the
// redis counter cache.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, svcErr.Map(err)
	}
	return count, nil
}
