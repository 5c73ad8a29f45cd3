package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/database"
	"github.com/filedepot/backend/internal/handlers"
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	blobs, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := blobs.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	rules := services.DefaultClassifierRules()
	if cfg.Classifier.RulesPath != "" {
		rules, err = services.LoadClassifierRules(cfg.Classifier.RulesPath)
		if err != nil {
			log.Fatalf("failed loading classifier rules: %v", err)
		}
	}

	access := services.NewAccessService()
	versions := services.NewVersionService(db, blobs, access)
	catalog := services.NewCatalogService(db, blobs, services.NewClassifier(rules), access, versions)
	folders := services.NewFolderService(db, access)
	taxonomy := services.NewTaxonomyService(db, access)
	interactions := services.NewInteractionService(db)
	audit := services.NewAuditService(db, cfg.Audit.QueueSize)

	authHandler := handlers.NewAuthHandler(db)
	filesHandler := handlers.NewFilesHandler(catalog, blobs, audit)
	foldersHandler := handlers.NewFoldersHandler(folders)
	taxonomyHandler := handlers.NewTaxonomyHandler(taxonomy)
	versionsHandler := handlers.NewVersionsHandler(versions)
	interactionsHandler := handlers.NewInteractionsHandler(interactions)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			// No more requests in flight; flush queued access rows.
			audit.Close()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
