package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"inkwell/internal/middleware"

	"gorm.io/gorm"
)

// schemaVersion is one applied migration.
type schemaVersion struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

func (schemaVersion) TableName() string { return "schema_versions" }

// Migrator applies and reverts the embedded SQL migrations, tracking them in
// the schema_versions table.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, set: migrations}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&schemaVersion{}); err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}
	return nil
}

// Applied returns the recorded versions in ascending order. Versions that
// no embedded migration knows about are an error: the binary is older than
// the database.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var versions []int
	err := m.db.WithContext(ctx).Model(&schemaVersion{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("read schema_versions: %w", err)
	}
	if err := checkKnownVersions(versions, m.set); err != nil {
		return nil, err
	}
	return versions, nil
}

func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range m.set {
		if !slices.Contains(applied, mig.Version) {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up runs every pending migration, each in its own transaction together with
// its schema_versions row. It returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&schemaVersion{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply %s: %w", mig.String(), err)
		}
		middleware.Logger.InfoContext(ctx, "Migration applied", slog.String("migration", mig.String()))
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.set, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration %06d does not exist", version)
	}
	mig := m.set[idx]

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s is not applied", mig.String())
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return err
		}
		return tx.Delete(&schemaVersion{}, version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", mig.String(), err)
	}
	middleware.Logger.InfoContext(ctx, "Migration reverted", slog.String("migration", mig.String()))
	return nil
}

func checkKnownVersions(applied []int, set []Migration) error {
	var unknown []string
	for _, v := range applied {
		if !slices.ContainsFunc(set, func(mig Migration) bool { return mig.Version == v }) {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("schema_versions has versions this build does not know: %s", strings.Join(unknown, ", "))
	}
	return nil
}
