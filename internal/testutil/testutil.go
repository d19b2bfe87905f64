package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/simsaas/simsaas/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns an in-memory sqlite DB with migrations applied
// and foreign keys enforced.
func OpenTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	// one connection serializes access so shared-cache table locks
	// cannot surface between goroutines
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}

	return db
}

// CloseDB closes the underlying sql.DB if available.
func CloseDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// AssertCount asserts a count for the provided model using the supplied DB.
func AssertCount(tb testing.TB, db *gorm.DB, model any, expected int64) {
	tb.Helper()

	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	if count != expected {
		tb.Fatalf("expected %d records, got %d", expected, count)
	}
}

// SeedMesh creates a project, geometry and mesh chain and returns the mesh.
func SeedMesh(tb testing.TB, db *gorm.DB) *models.Mesh {
	tb.Helper()

	project := &models.Project{Name: "wing"}
	if err := db.Create(project).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}

	geometry := &models.Geometry{ProjectID: project.ID, FileURL: "https://files.example.com/wing.step"}
	if err := db.Create(geometry).Error; err != nil {
		tb.Fatalf("seed geometry: %v", err)
	}

	mesh := &models.Mesh{GeometryID: geometry.ID, Resolution: 5}
	if err := db.Create(mesh).Error; err != nil {
		tb.Fatalf("seed mesh: %v", err)
	}

	return mesh
}
