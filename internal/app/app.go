package app

import (
	"context"

	"fieldvisit/config"
	"fieldvisit/internal/controllers"
	"fieldvisit/internal/database"
	"fieldvisit/internal/events"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/jobs"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
	"fieldvisit/internal/websockets"
)

type App struct {
	Database     database.DB
	Config       config.Config
	Middleware   middleware.Middleware
	EventBus     *events.EventBus
	Websocket    *websockets.Manager
	Repos        repositories.Repository
	Services     services.Service
	Controllers  controllers.Controllers
	AccessPolicy middleware.AccessPolicy
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)
	appServices := services.New(db, config, repos)
	appControllers := controllers.New(appServices, repos, eventBus, config, db)
	appMiddleware := middleware.New(db, config, repos, appServices.Session)

	websocket, err := websockets.New(eventBus, appServices.Session, repos)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	// Mail dispatch rides the same bus the live feed listens on
	if err := appServices.Notification.RegisterHandlers(eventBus); err != nil {
		return &App{}, log.Err("failed to register notification handlers", err)
	}

	if config.SchedulerEnabled {
		retryJob := jobs.NewNotificationRetryJob(
			appServices.Notification,
			services.EveryFifteenMinutes,
		)
		if err := appServices.Scheduler.AddJob(retryJob); err != nil {
			return &App{}, log.Err("failed to register notification retry job", err)
		}

		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
		log.Info("Registered notification retry job with scheduler")
	}

	app := &App{
		Database:     db,
		Config:       config,
		Middleware:   appMiddleware,
		EventBus:     eventBus,
		Websocket:    websocket,
		Repos:        repos,
		Services:     appServices,
		Controllers:  appControllers,
		AccessPolicy: middleware.DefaultAccessPolicy(),
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.Websocket,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Session,
		a.Services.Mailer,
		a.Services.Notification,
		a.Services.Report,
		a.Controllers.User,
		a.Controllers.Assignment,
		a.Controllers.Audit,
		a.Controllers.Import,
		a.Repos.User,
		a.Repos.Assignment,
		a.Repos.Reschedule,
		a.Repos.History,
		a.Repos.Audit,
		a.Repos.Notification,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
