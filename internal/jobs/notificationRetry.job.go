package jobs

import (
	"context"

	"fieldvisit/internal/logger"
	"fieldvisit/internal/services"
)

// retryBatchSize bounds one scheduler pass so a long backlog cannot hold
// the relay connection open indefinitely
const retryBatchSize = 100

type NotificationRetryJob struct {
	notifications *services.NotificationService
	log           logger.Logger
	schedule      services.Schedule
}

func NewNotificationRetryJob(
	notifications *services.NotificationService,
	schedule services.Schedule,
) *NotificationRetryJob {
	log := logger.New("notificationRetryJob")
	log.Info("Creating new notification retry job", "schedule", schedule)

	return &NotificationRetryJob{
		notifications: notifications,
		log:           log,
		schedule:      schedule,
	}
}

func (j *NotificationRetryJob) Name() string {
	return "NotificationRetry"
}

func (j *NotificationRetryJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if err := j.notifications.RetryDeliverable(ctx, retryBatchSize); err != nil {
		return log.Err("notification retry pass failed", err)
	}

	return nil
}

func (j *NotificationRetryJob) Schedule() services.Schedule {
	return j.schedule
}
