package repositories

import (
	"context"

	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryRepository interface {
	// Append writes one entry inside the caller's transaction; the entry
	// and the state change it records commit or roll back together
	Append(ctx context.Context, tx *gorm.DB, entry *HistoryEntry) error
	ListForAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*HistoryEntry, error)
}

type historyRepository struct {
	log logger.Logger
}

func NewHistoryRepository() HistoryRepository {
	return &historyRepository{
		log: logger.New("historyRepository"),
	}
}

func (r *historyRepository) Append(
	ctx context.Context,
	tx *gorm.DB,
	entry *HistoryEntry,
) error {
	log := r.log.Function("Append")

	if err := gorm.G[HistoryEntry](tx).Create(ctx, entry); err != nil {
		return log.Err(
			"failed to append history entry",
			err,
			"assignmentID", entry.AssignmentID,
			"action", entry.Action,
		)
	}

	return nil
}

func (r *historyRepository) ListForAssignment(
	ctx context.Context,
	tx *gorm.DB,
	assignmentID uuid.UUID,
) ([]*HistoryEntry, error) {
	log := r.log.Function("ListForAssignment")

	entries, err := gorm.G[*HistoryEntry](tx).
		Preload("Actor", nil).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list history entries", err, "assignmentID", assignmentID)
	}

	return entries, nil
}
