package controllers

import (
	"fieldvisit/config"
	"fieldvisit/internal/database"
	"fieldvisit/internal/events"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"

	assignmentController "fieldvisit/internal/controllers/assignments"
	auditController "fieldvisit/internal/controllers/audits"
	importController "fieldvisit/internal/controllers/imports"
	userController "fieldvisit/internal/controllers/users"
)

type Controllers struct {
	User       userController.UserControllerInterface
	Assignment assignmentController.AssignmentControllerInterface
	Audit      auditController.AuditControllerInterface
	Import     importController.ImportControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		User:       userController.New(repos, services, db),
		Assignment: assignmentController.New(repos, services, eventBus, db),
		Audit:      auditController.New(repos, services, eventBus, config, db),
		Import:     importController.New(repos, services, eventBus),
	}
}
