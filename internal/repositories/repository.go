package repositories

import (
	"fieldvisit/internal/database"
)

type Repository struct {
	User         UserRepository
	Assignment   AssignmentRepository
	Reschedule   RescheduleRepository
	History      HistoryRepository
	Audit        AuditRepository
	Notification NotificationRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:         NewUserRepository(db), // user repo needs the cache tier
		Assignment:   NewAssignmentRepository(db),
		Reschedule:   NewRescheduleRepository(),
		History:      NewHistoryRepository(),
		Audit:        NewAuditRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
