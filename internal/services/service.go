package services

import (
	"fieldvisit/config"
	"fieldvisit/internal/database"
	"fieldvisit/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Session      *SessionService
	Mailer       *MailerService
	Notification *NotificationService
	Report       *ReportService
}

func New(db database.DB, config config.Config, repos repositories.Repository) Service {
	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	sessionService := NewSessionService(db, config)
	mailerService := NewMailerService(config)
	notificationService := NewNotificationService(repos.Notification, mailerService)
	reportService := NewReportService(repos.Audit, db)

	return Service{
		Transaction:  transactionService,
		Scheduler:    schedulerService,
		Session:      sessionService,
		Mailer:       mailerService,
		Notification: notificationService,
		Report:       reportService,
	}
}
