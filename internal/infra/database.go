package infra

import (
	"fmt"

	"cotizador/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (partial indexes, check constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Shared with integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Empresa{},
		&model.Plan{},
		&model.PlanVersion{},
		&model.Coeficiente{},
		&model.CuotaBalonMes{},
		&model.Marca{},
		&model.Linea{},
		&model.Modelo{},
		&model.VersionVehiculo{},
		&model.Cotizacion{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS / existence guards so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one vigente version per plan. The application enforces
		// this with a row lock on the plan; the partial index makes the
		// invariant hold even against out-of-band writes.
		{"partial unique index plan_versions es_ultima", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_plan_versions_ultima') THEN
    CREATE UNIQUE INDEX idx_plan_versions_ultima
        ON plan_versions (plan_id)
        WHERE es_ultima;
  END IF;
END $$`},
		// Version numbers are assigned by the service and always positive.
		{"check plan_versions version positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_plan_versions_version_positiva') THEN
    ALTER TABLE plan_versions
      ADD CONSTRAINT chk_plan_versions_version_positiva CHECK (version > 0);
  END IF;
END $$`},
		// Listing quotations by company is the dominant query.
		{"index cotizaciones empresa", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cotizaciones_empresa') THEN
    CREATE INDEX idx_cotizaciones_empresa ON cotizaciones (empresa_id, created_at DESC);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
