package repositories

import (
	"context"
	"time"

	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	MarkSent(ctx context.Context, notification *Notification) error
	MarkFailed(ctx context.Context, notification *Notification, sendErr error) error
	// ListDeliverable returns queued or failed rows that have a recipient;
	// rows without one are never dispatched
	ListDeliverable(ctx context.Context, limit int) ([]*Notification, error)
}

type notificationRepository struct {
	db  database.DB
	log logger.Logger
}

func NewNotificationRepository(db database.DB) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: logger.New("notificationRepository"),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *Notification) error {
	log := r.log.Function("Create")

	if err := gorm.G[Notification](r.db.SQL).Create(ctx, notification); err != nil {
		return log.Err(
			"failed to create notification",
			err,
			"assignmentID", notification.AssignmentID,
		)
	}

	return nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, notification *Notification) error {
	log := r.log.Function("MarkSent")

	now := time.Now()
	notification.Status = NotificationSent
	notification.SentAt = &now
	notification.ErrorDetail = nil
	notification.Attempts++

	if err := r.db.SQLWithContext(ctx).Save(notification).Error; err != nil {
		return log.Err("failed to mark notification sent", err, "notificationID", notification.ID)
	}

	return nil
}

func (r *notificationRepository) MarkFailed(
	ctx context.Context,
	notification *Notification,
	sendErr error,
) error {
	log := r.log.Function("MarkFailed")

	detail := sendErr.Error()
	notification.Status = NotificationFailed
	notification.ErrorDetail = &detail
	notification.Attempts++

	if err := r.db.SQLWithContext(ctx).Save(notification).Error; err != nil {
		return log.Err("failed to mark notification failed", err, "notificationID", notification.ID)
	}

	return nil
}

func (r *notificationRepository) ListDeliverable(
	ctx context.Context,
	limit int,
) ([]*Notification, error) {
	log := r.log.Function("ListDeliverable")

	notifications, err := gorm.G[*Notification](r.db.SQL).
		Where("status IN ? AND recipient_email IS NOT NULL", []NotificationStatus{
			NotificationQueued,
			NotificationFailed,
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list deliverable notifications", err)
	}

	return notifications, nil
}
