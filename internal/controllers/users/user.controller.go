package userController

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldvisit/internal/apperrors"
	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

type UserControllerInterface interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	CreateUser(ctx context.Context, req CreateUserRequest, actor *User) (*User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, req UpdateUserRoleRequest, actor *User) (*User, error)
	// SetActive deactivates or reactivates an account. Deactivation blocks
	// new logins; existing sessions expire on their own TTL.
	SetActive(ctx context.Context, userID uuid.UUID, active bool, actor *User) (*User, error)
	ListTechnicians(ctx context.Context, activeOnly bool) ([]*User, error)
}

type UserController struct {
	userRepo repositories.UserRepository
	session  *services.SessionService
	db       database.DB
	validate *validator.Validate
	log      logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) UserControllerInterface {
	return &UserController{
		userRepo: repos.User,
		session:  services.Session,
		db:       db,
		validate: validator.New(),
		log:      logger.New("userController"),
	}
}

func (c *UserController) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	log := c.log.Function("Login")

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := c.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Same response for unknown email and wrong password
		log.Info("login failed, unknown email", "email", email)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if !user.IsActive {
		log.Info("login rejected, inactive account", "userID", user.ID)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info("login failed, wrong password", "userID", user.ID)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := c.session.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := c.userRepo.Update(ctx, user); err != nil {
		log.Warn("failed to record login timestamp", "userID", user.ID, "error", err)
	}

	log.Info("user logged in", "userID", user.ID, "role", user.Role)

	return &LoginResponse{
		Token: token,
		User:  user.ToProfile(),
	}, nil
}

func (c *UserController) Logout(ctx context.Context, sessionID string) error {
	return c.session.Revoke(ctx, sessionID)
}

func (c *UserController) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
	actor *User,
) (*User, error) {
	log := c.log.Function("CreateUser")

	if actor.Role != RoleAdmin {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only admins create users")
	}

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, log.Err("failed to hash password", err)
	}

	user := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         UserRole(req.Role),
		IsActive:     true,
	}

	if err := c.userRepo.Create(ctx, user); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, fmt.Errorf("%w: a user with that email already exists", apperrors.ErrConflict)
		}
		return nil, err
	}

	log.Info("user created", "userID", user.ID, "role", user.Role, "actorID", actor.ID)
	return user, nil
}

func (c *UserController) UpdateRole(
	ctx context.Context,
	userID uuid.UUID,
	req UpdateUserRoleRequest,
	actor *User,
) (*User, error) {
	log := c.log.Function("UpdateRole")

	if actor.Role != RoleAdmin {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only admins change roles")
	}

	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err.Error())
	}

	if userID == actor.ID {
		return nil, fmt.Errorf("%w: admins cannot change their own role", apperrors.ErrConflict)
	}

	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "user not found")
	}

	user.Role = UserRole(req.Role)
	if err := c.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("user role updated", "userID", userID, "role", user.Role, "actorID", actor.ID)
	return user, nil
}

func (c *UserController) SetActive(
	ctx context.Context,
	userID uuid.UUID,
	active bool,
	actor *User,
) (*User, error) {
	log := c.log.Function("SetActive")

	if actor.Role != RoleAdmin {
		return nil, log.ErrorWithType(apperrors.ErrForbidden, "only admins deactivate users")
	}

	if userID == actor.ID && !active {
		return nil, fmt.Errorf("%w: admins cannot deactivate themselves", apperrors.ErrConflict)
	}

	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, log.ErrorWithType(apperrors.ErrNotFound, "user not found")
	}

	user.IsActive = active
	if err := c.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("user active flag updated", "userID", userID, "active", active, "actorID", actor.ID)
	return user, nil
}

func (c *UserController) ListTechnicians(ctx context.Context, activeOnly bool) ([]*User, error) {
	return c.userRepo.ListTechnicians(ctx, activeOnly)
}
