package repositories

import (
	"context"
	"time"

	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditReportQuery narrows audits for reporting and export
type AuditReportQuery struct {
	From *time.Time
	To   *time.Time
	Zone string
}

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, audit *VisitAudit) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*VisitAudit, error)
	// GetLatestForAssignment returns the most recent audit, which is
	// authoritative for reporting when several exist
	GetLatestForAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (*VisitAudit, error)
	ListForReport(ctx context.Context, tx *gorm.DB, query AuditReportQuery) ([]*VisitAudit, error)
	UpdatePhotos(ctx context.Context, tx *gorm.DB, auditID uuid.UUID, photos []string) error
}

type auditRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAuditRepository(db database.DB) AuditRepository {
	return &auditRepository{
		db:  db,
		log: logger.New("auditRepository"),
	}
}

func (r *auditRepository) Create(ctx context.Context, tx *gorm.DB, audit *VisitAudit) error {
	log := r.log.Function("Create")

	if err := gorm.G[VisitAudit](tx).Create(ctx, audit); err != nil {
		return log.Err("failed to create visit audit", err, "assignmentID", audit.AssignmentID)
	}

	return nil
}

func (r *auditRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*VisitAudit, error) {
	log := r.log.Function("GetByID")

	audit, err := gorm.G[*VisitAudit](tx).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get visit audit", err, "auditID", id)
	}

	return audit, nil
}

func (r *auditRepository) GetLatestForAssignment(
	ctx context.Context,
	tx *gorm.DB,
	assignmentID uuid.UUID,
) (*VisitAudit, error) {
	log := r.log.Function("GetLatestForAssignment")

	audit, err := gorm.G[*VisitAudit](tx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get latest audit", err, "assignmentID", assignmentID)
	}

	return audit, nil
}

func (r *auditRepository) ListForReport(
	ctx context.Context,
	tx *gorm.DB,
	query AuditReportQuery,
) ([]*VisitAudit, error) {
	log := r.log.Function("ListForReport")

	dbQuery := tx.WithContext(ctx).Model(&VisitAudit{}).
		Joins("JOIN assignments ON assignments.id = visit_audits.assignment_id")

	if query.From != nil {
		dbQuery = dbQuery.Where("visit_audits.created_at >= ?", *query.From)
	}
	if query.To != nil {
		dbQuery = dbQuery.Where("visit_audits.created_at < ?", *query.To)
	}
	if query.Zone != "" {
		dbQuery = dbQuery.Where("assignments.zone = ?", query.Zone)
	}

	var audits []*VisitAudit
	if err := dbQuery.
		Preload("Assignment").
		Order("visit_audits.created_at DESC").
		Find(&audits).Error; err != nil {
		return nil, log.Err("failed to list audits for report", err)
	}

	return audits, nil
}

func (r *auditRepository) UpdatePhotos(
	ctx context.Context,
	tx *gorm.DB,
	auditID uuid.UUID,
	photos []string,
) error {
	log := r.log.Function("UpdatePhotos")

	// Photo backfill is the only mutation allowed after creation
	result := tx.WithContext(ctx).
		Model(&VisitAudit{}).
		Where("id = ?", auditID).
		Update("photos", datatypes.NewJSONSlice(photos))
	if result.Error != nil {
		return log.Err("failed to update audit photos", result.Error, "auditID", auditID)
	}

	return nil
}
