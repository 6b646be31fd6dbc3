package database

import (
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.User{},
		&models.Assignment{},
		&models.RescheduleRecord{},
		&models.HistoryEntry{},
		&models.VisitAudit{},
		&models.Notification{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates indexes that GORM doesn't create automatically.
// The partial unique index enforces at most one active owned assignment
// per (customer_rut, unit_id); concurrent self-assign races resolve here
// at commit time.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_one_active_per_unit
			ON assignments(customer_rut, unit_id)
			WHERE state IN ('pending', 'assigned', 'rescheduled')
			AND technician_id IS NOT NULL
			AND deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_state_zone
			ON assignments(state, zone)`,
		`CREATE INDEX IF NOT EXISTS idx_history_entries_assignment_created
			ON history_entries(assignment_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_status_created
			ON notifications(status, created_at)`,
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			return log.Err("Failed to create index", err, "sql", indexSQL)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
