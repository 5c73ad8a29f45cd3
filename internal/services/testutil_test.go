package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/filedepot/backend/internal/database"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var serviceTestSetupOnce sync.Once

// setupServiceTestDB opens an in-memory sqlite database with the full schema.
// TranslateError matches production: the dedup and conflict paths depend on
// unique violations surfacing as gorm.ErrDuplicatedKey.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	serviceTestSetupOnce.Do(func() {
		logger.Init()
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func createServiceUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "Test User",
		Role:         models.UserRoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user %s: %v", email, err)
	}
	return user
}

// storeContent pushes a string through the blob store, returning the stored
// object exactly as an upload handler would see it.
func storeContent(t *testing.T, blobs storage.BlobStore, content string) storage.StoredObject {
	t.Helper()

	obj, err := blobs.Store(context.Background(), strings.NewReader(content), int64(len(content)), "text/plain")
	if err != nil {
		t.Fatalf("failed storing content: %v", err)
	}
	return obj
}

// newCatalogEnv wires a catalog service with its collaborators onto a fresh
// database and memory blob store.
func newCatalogEnv(t *testing.T) (*CatalogService, *storage.MemoryStore, *gorm.DB) {
	t.Helper()

	db := setupServiceTestDB(t)
	blobs := storage.NewMemoryStore()
	access := NewAccessService()
	versions := NewVersionService(db, blobs, access)
	catalog := NewCatalogService(db, blobs, NewClassifier(DefaultClassifierRules()), access, versions)
	return catalog, blobs, db
}
