package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/filedepot/backend/internal/database"
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	blobs *storage.MemoryStore
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
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

	blobs := storage.NewMemoryStore()
	access := services.NewAccessService()
	versions := services.NewVersionService(db, blobs, access)
	catalog := services.NewCatalogService(db, blobs, services.NewClassifier(services.DefaultClassifierRules()), access, versions)
	folders := services.NewFolderService(db, access)
	taxonomy := services.NewTaxonomyService(db, access)
	interactions := services.NewInteractionService(db)
	audit := services.NewAuditService(db, 64)

	authHandler := NewAuthHandler(db)
	filesHandler := NewFilesHandler(catalog, blobs, audit)
	foldersHandler := NewFoldersHandler(folders)
	taxonomyHandler := NewTaxonomyHandler(taxonomy)
	versionsHandler := NewVersionsHandler(versions)
	interactionsHandler := NewInteractionsHandler(interactions)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	publicFileRoutes := api.Group("/public/files", authMiddleware.OptionalAuth)
	publicFileRoutes.Get("/:id/open", filesHandler.Open)
	publicFileRoutes.Get("/:id/download", filesHandler.PublicDownload)
	publicFileRoutes.Get("/:id/interactions", interactionsHandler.Status)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", filesHandler.Upload)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Get("/:id/download", filesHandler.Download)
	fileRoutes.Put("/:id/move", filesHandler.Move)
	fileRoutes.Put("/:id/content", filesHandler.Replace)
	fileRoutes.Get("/:id/versions", versionsHandler.List)
	fileRoutes.Get("/:id/versions/:versionId", versionsHandler.Get)
	fileRoutes.Post("/:id/versions/:versionId/restore", versionsHandler.Restore)
	fileRoutes.Delete("/:id/versions/:versionId", versionsHandler.Delete)
	fileRoutes.Get("/:id/categories", taxonomyHandler.FileCategories)
	fileRoutes.Put("/:id/categories/:categoryId", taxonomyHandler.AttachCategory)
	fileRoutes.Delete("/:id/categories/:categoryId", taxonomyHandler.DetachCategory)
	fileRoutes.Get("/:id/tags", taxonomyHandler.FileTags)
	fileRoutes.Put("/:id/tags/:tagId", taxonomyHandler.AttachTag)
	fileRoutes.Delete("/:id/tags/:tagId", taxonomyHandler.DetachTag)
	fileRoutes.Post("/:id/like", interactionsHandler.ToggleLike)
	fileRoutes.Post("/:id/favorite", interactionsHandler.ToggleFavorite)
	fileRoutes.Get("/:id/interactions", interactionsHandler.Status)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Delete("/:id", filesHandler.Delete)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/", foldersHandler.List)
	folderRoutes.Get("/:id/children", foldersHandler.Children)
	folderRoutes.Get("/:id/files", foldersHandler.Files)
	folderRoutes.Get("/:id", foldersHandler.Get)
	folderRoutes.Delete("/:id", foldersHandler.Delete)

	categoryRoutes := api.Group("/categories", authMiddleware.RequireAuth)
	categoryRoutes.Post("/", taxonomyHandler.CreateCategory)
	categoryRoutes.Get("/", taxonomyHandler.ListCategories)

	tagRoutes := api.Group("/tags", authMiddleware.RequireAuth)
	tagRoutes.Post("/", taxonomyHandler.CreateTag)
	tagRoutes.Get("/", taxonomyHandler.ListTags)

	return &testEnv{app: app, db: db, blobs: blobs}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test User",
		Role:         models.UserRoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performUpload builds a multipart body with the given file content plus any
// extra form fields and posts it.
func performUpload(t *testing.T, app *fiber.App, method, path, filename, content string, fields map[string]string, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed creating form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed writing form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, method, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// dataField digs the success envelope's data object out of a decoded body.
func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success envelope, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data field, got %+v", body["data"])
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success envelope, got %+v", body)
	}
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected array data field, got %+v", body["data"])
	}
	return data
}
