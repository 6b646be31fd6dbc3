package repositories

import (
	"context"

	"fieldvisit/internal/constants"
	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	// ListTechnicians returns technician users; activeOnly narrows the
	// query to selectable assignees
	ListTechnicians(ctx context.Context, activeOnly bool) ([]*User, error)
	ClearUserCache(ctx context.Context, user *User) error
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	if err := r.db.SQLWithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user by id", err, "id", id)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	log := r.log.Function("GetByEmail")

	var cached User
	found, err := database.NewCacheBuilder(r.db.Cache.User, email).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get user from cache", "email", email, "error", err)
	}
	if found {
		return &cached, nil
	}

	var user User
	if err := r.db.SQLWithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, log.Err("failed to get user by email", err, "email", email)
	}

	if err := r.addUserToCache(ctx, &user); err != nil {
		log.Warn("failed to add user to cache", "email", email, "error", err)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	log := r.log.Function("Create")

	if err := gorm.G[User](r.db.SQL).Create(ctx, user); err != nil {
		return log.Err("failed to create user", err, "email", user.Email)
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(user).Error; err != nil {
		return log.Err("failed to update user", err, "userID", user.ID)
	}

	if err := r.ClearUserCache(ctx, user); err != nil {
		log.Warn("failed to clear user cache after update", "userID", user.ID, "error", err)
	}

	return nil
}

func (r *userRepository) ListTechnicians(ctx context.Context, activeOnly bool) ([]*User, error) {
	log := r.log.Function("ListTechnicians")

	query := r.db.SQLWithContext(ctx).Where("role = ?", RoleTechnician)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var technicians []*User
	if err := query.Order("name ASC").Find(&technicians).Error; err != nil {
		return nil, log.Err("failed to list technicians", err)
	}

	return technicians, nil
}

func (r *userRepository) ClearUserCache(ctx context.Context, user *User) error {
	return database.NewCacheBuilder(r.db.Cache.User, user.Email).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Delete()
}

func (r *userRepository) addUserToCache(ctx context.Context, user *User) error {
	return database.NewCacheBuilder(r.db.Cache.User, user.Email).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		WithStruct(user).
		WithTTL(constants.UserCacheExpiry).
		Set()
}
