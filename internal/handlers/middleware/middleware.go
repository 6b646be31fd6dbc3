package middleware

import (
	"fieldvisit/config"
	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
)

type Middleware struct {
	DB       database.DB
	Config   config.Config
	userRepo repositories.UserRepository
	session  *services.SessionService
	log      logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
	session *services.SessionService,
) Middleware {
	return Middleware{
		DB:       db,
		Config:   config,
		userRepo: repos.User,
		session:  session,
		log:      logger.New("middleware"),
	}
}
