package services

import (
	"context"
	"fmt"
	"time"

	"fieldvisit/internal/events"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"
)

// NotificationService turns assignment lifecycle events into outbound
// email. It runs entirely outside the transaction that produced the
// event: a transport failure is recorded on the notification row and
// never surfaces to the request that triggered it.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	mailer           MailSender
	log              logger.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	mailer MailSender,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		mailer:           mailer,
		log:              logger.New("NotificationService"),
	}
}

// RegisterHandlers subscribes the dispatcher to the assignment channel
func (n *NotificationService) RegisterHandlers(eventBus *events.EventBus) error {
	return eventBus.Subscribe(events.ASSIGNMENT_CHANNEL, n.handleAssignmentEvent)
}

func (n *NotificationService) handleAssignmentEvent(event events.Event) error {
	log := n.log.Function("handleAssignmentEvent")

	subject, body, ok := renderAssignmentMail(event)
	if !ok {
		// not every transition notifies
		return nil
	}

	if event.AssignmentID == nil {
		return log.ErrMsg("assignment event without assignment id")
	}

	notification := &Notification{
		AssignmentID: *event.AssignmentID,
		Subject:      subject,
		Body:         body,
		Status:       NotificationQueued,
	}

	if recipient, found := event.Data["technicianEmail"].(string); found && recipient != "" {
		notification.RecipientEmail = &recipient
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := n.notificationRepo.Create(ctx, notification); err != nil {
		return log.Err("failed to persist notification", err, "eventID", event.ID)
	}

	// No destination: leave queued, never dispatch
	if notification.RecipientEmail == nil {
		log.Info("notification has no recipient, left queued", "notificationID", notification.ID)
		return nil
	}

	n.deliver(ctx, notification)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, notification *Notification) {
	log := n.log.Function("deliver")

	err := n.mailer.Send(ctx, *notification.RecipientEmail, notification.Subject, notification.Body)
	if err != nil {
		log.Er("notification delivery failed", err, "notificationID", notification.ID)
		if markErr := n.notificationRepo.MarkFailed(ctx, notification, err); markErr != nil {
			log.Er("failed to record delivery failure", markErr, "notificationID", notification.ID)
		}
		return
	}

	if err := n.notificationRepo.MarkSent(ctx, notification); err != nil {
		log.Er("failed to record delivery success", err, "notificationID", notification.ID)
	}
}

// RetryDeliverable re-attempts queued and failed notifications that have
// a recipient. Called periodically by the scheduler.
func (n *NotificationService) RetryDeliverable(ctx context.Context, limit int) error {
	log := n.log.Function("RetryDeliverable")

	notifications, err := n.notificationRepo.ListDeliverable(ctx, limit)
	if err != nil {
		return err
	}

	for _, notification := range notifications {
		n.deliver(ctx, notification)
	}

	if len(notifications) > 0 {
		log.Info("retried notifications", "count", len(notifications))
	}

	return nil
}

func renderAssignmentMail(event events.Event) (subject, body string, ok bool) {
	address, _ := event.Data["address"].(string)
	date, _ := event.Data["scheduledDate"].(string)

	switch event.Type {
	case events.ASSIGNMENT_ASSIGNED:
		return "Visita asignada",
			fmt.Sprintf("Se te asignó la visita en %s para el %s.", address, date),
			true
	case events.ASSIGNMENT_UNASSIGNED:
		return "Visita liberada",
			fmt.Sprintf("La visita en %s volvió al pool de pendientes.", address),
			true
	case events.ASSIGNMENT_RESCHEDULED:
		slot, _ := event.Data["timeslot"].(string)
		return "Visita reagendada",
			fmt.Sprintf("La visita en %s fue reagendada para el %s, bloque %s.", address, date, slot),
			true
	case events.ASSIGNMENT_CANCELLED:
		return "Visita cancelada",
			fmt.Sprintf("La visita en %s fue cancelada.", address),
			true
	default:
		return "", "", false
	}
}
