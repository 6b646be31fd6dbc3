package repositories

import (
	"context"

	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RescheduleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *RescheduleRecord) error
	ListForAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*RescheduleRecord, error)
}

type rescheduleRepository struct {
	log logger.Logger
}

func NewRescheduleRepository() RescheduleRepository {
	return &rescheduleRepository{
		log: logger.New("rescheduleRepository"),
	}
}

func (r *rescheduleRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	record *RescheduleRecord,
) error {
	log := r.log.Function("Create")

	if err := gorm.G[RescheduleRecord](tx).Create(ctx, record); err != nil {
		return log.Err(
			"failed to create reschedule record",
			err,
			"assignmentID", record.AssignmentID,
		)
	}

	return nil
}

func (r *rescheduleRepository) ListForAssignment(
	ctx context.Context,
	tx *gorm.DB,
	assignmentID uuid.UUID,
) ([]*RescheduleRecord, error) {
	log := r.log.Function("ListForAssignment")

	records, err := gorm.G[*RescheduleRecord](tx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list reschedule records", err, "assignmentID", assignmentID)
	}

	return records, nil
}
