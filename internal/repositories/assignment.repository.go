package repositories

import (
	"context"
	"strings"

	"fieldvisit/internal/constants"
	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// AssignmentQuery narrows and paginates assignment listings. Ownership
// predicates are explicit so role-conditioned visibility lives at the
// call site, not inside the repository.
type AssignmentQuery struct {
	States       []AssignmentState
	TechnicianID *uuid.UUID
	Unowned      bool
	Zone         string
	Comuna       string
	Search       string
	Page         int
	PageSize     int
}

type AssignmentPage struct {
	Items    []*Assignment `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

type AssignmentRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Assignment, error)
	Create(ctx context.Context, tx *gorm.DB, assignment *Assignment) error
	CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*Assignment) error
	Save(ctx context.Context, tx *gorm.DB, assignment *Assignment) error
	// ClaimPending atomically takes ownership of a pending, unowned
	// assignment. Returns false when another request won the race or the
	// precondition no longer holds.
	ClaimPending(ctx context.Context, tx *gorm.DB, assignmentID, technicianID uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB, query AssignmentQuery) (*AssignmentPage, error)
	ClearTechnicianCache(ctx context.Context, technicianID uuid.UUID)
}

type assignmentRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAssignmentRepository(db database.DB) AssignmentRepository {
	return &assignmentRepository{
		db:  db,
		log: logger.New("assignmentRepository"),
	}
}

func (r *assignmentRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Assignment, error) {
	log := r.log.Function("GetByID")

	assignment, err := gorm.G[*Assignment](tx).
		Preload("Technician", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get assignment", err, "assignmentID", id)
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	assignment *Assignment,
) error {
	log := r.log.Function("Create")

	if err := gorm.G[Assignment](tx).Create(ctx, assignment); err != nil {
		return log.Err(
			"failed to create assignment",
			err,
			"customerRUT", assignment.CustomerRUT,
			"unitID", assignment.UnitID,
		)
	}

	return nil
}

func (r *assignmentRepository) CreateBatch(
	ctx context.Context,
	tx *gorm.DB,
	assignments []*Assignment,
) error {
	log := r.log.Function("CreateBatch")

	if len(assignments) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Create(&assignments).Error; err != nil {
		return log.Err("failed to create assignment batch", err, "count", len(assignments))
	}

	return nil
}

func (r *assignmentRepository) Save(
	ctx context.Context,
	tx *gorm.DB,
	assignment *Assignment,
) error {
	log := r.log.Function("Save")

	if err := tx.WithContext(ctx).Save(assignment).Error; err != nil {
		return log.Err("failed to save assignment", err, "assignmentID", assignment.ID)
	}

	if assignment.TechnicianID != nil {
		r.ClearTechnicianCache(ctx, *assignment.TechnicianID)
	}

	return nil
}

func (r *assignmentRepository) ClaimPending(
	ctx context.Context,
	tx *gorm.DB,
	assignmentID, technicianID uuid.UUID,
) (bool, error) {
	log := r.log.Function("ClaimPending")

	// The precondition is re-verified inside the UPDATE itself; a plain
	// read-then-write would race between two technicians claiming the
	// same address.
	result := tx.WithContext(ctx).
		Model(&Assignment{}).
		Where("id = ? AND state = ? AND technician_id IS NULL", assignmentID, StatePending).
		Updates(map[string]any{
			"technician_id": technicianID,
			"state":         StateAssigned,
		})
	if result.Error != nil {
		return false, log.Err(
			"failed to claim assignment",
			result.Error,
			"assignmentID", assignmentID,
			"technicianID", technicianID,
		)
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	r.ClearTechnicianCache(ctx, technicianID)
	return true, nil
}

func (r *assignmentRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	query AssignmentQuery,
) (*AssignmentPage, error) {
	log := r.log.Function("List")

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	dbQuery := tx.WithContext(ctx).Model(&Assignment{})

	if len(query.States) > 0 {
		dbQuery = dbQuery.Where("state IN ?", query.States)
	}
	if query.TechnicianID != nil {
		dbQuery = dbQuery.Where("technician_id = ?", *query.TechnicianID)
	}
	if query.Unowned {
		dbQuery = dbQuery.Where("technician_id IS NULL")
	}
	if query.Zone != "" {
		dbQuery = dbQuery.Where("zone = ?", query.Zone)
	}
	if query.Comuna != "" {
		dbQuery = dbQuery.Where("LOWER(comuna) = ?", strings.ToLower(query.Comuna))
	}
	if query.Search != "" {
		like := "%" + strings.ToLower(query.Search) + "%"
		dbQuery = dbQuery.Where(
			"LOWER(address) LIKE ? OR LOWER(customer_rut) LIKE ? OR LOWER(unit_id) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, log.Err("failed to count assignments", err)
	}

	var items []*Assignment
	if err := dbQuery.
		Preload("Technician").
		Order("scheduled_date ASC, created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, log.Err("failed to list assignments", err)
	}

	return &AssignmentPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (r *assignmentRepository) ClearTechnicianCache(ctx context.Context, technicianID uuid.UUID) {
	err := database.NewCacheBuilder(r.db.Cache.User, technicianID).
		WithContext(ctx).
		WithHash(constants.AssignmentCachePrefix).
		Delete()
	if err != nil {
		r.log.Warn(
			"failed to clear technician assignment cache",
			"technicianID", technicianID,
			"error", err,
		)
	}
}
