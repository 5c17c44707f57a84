package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"notedrive/internal/auth"
	"notedrive/internal/config"
	"notedrive/internal/handler"
	"notedrive/internal/repository"
	"notedrive/internal/service"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", databaseURL)
		if err == nil {
			break
		}
		log.Printf("Failed to create migrate instance (attempt %d/5): %v", i+1, err)
		time.Sleep(time.Second * 5)
	}

	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Printf("Found dirty database state at version %d, attempting to force version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// untilNextMidnightUTC возвращает время до ближайшей полуночи UTC —
// момента запланированного запуска очистки корзины
func untilNextMidnightUTC(now time.Time) time.Duration {
	next := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return next.Sub(now)
}

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	authConfig, err := auth.NewConfig(".auth.env")
	if err != nil {
		log.Fatalf("Failed to load auth config: %v", err)
	}

	// Подключаемся к базе данных
	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	clk := clock.New()
	verifier := auth.NewVerifier(authConfig.JWTSecret)

	// Инициализация репозиториев
	noteRepo := repository.NewNoteRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Инициализация сервисов
	auditService := service.NewAuditService(auditRepo, clk)
	trashService := service.NewTrashService(noteRepo, folderRepo, auditService, clk)
	bulkService := service.NewBulkService(trashService, auditService)
	sweeperService := service.NewSweeperService(noteRepo, folderRepo, auditService, clk)

	// Инициализация хендлеров
	noteHandler := handler.NewNoteHandler(trashService, verifier)
	folderHandler := handler.NewFolderHandler(trashService, verifier)
	trashHandler := handler.NewTrashHandler(trashService, bulkService, verifier)
	auditHandler := handler.NewAuditHandler(auditService, verifier)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// HTTP маршруты
	r.Route("/v1", func(r chi.Router) {
		r.Post("/notes", noteHandler.CreateNote)
		r.Route("/notes/{uuid}", func(r chi.Router) {
			r.Delete("/", noteHandler.DeleteNote)
			r.Post("/restore", noteHandler.RestoreNote)
			r.Delete("/permanent", noteHandler.DeleteNotePermanently)
		})

		r.Post("/folders", folderHandler.CreateFolder)
		r.Delete("/folders/{id}", folderHandler.DeleteFolder)
		r.Post("/folders/{id}/restore", folderHandler.RestoreFolder)

		r.Route("/trash", func(r chi.Router) {
			r.Get("/", trashHandler.GetTrashItems)
			r.Post("/empty", trashHandler.EmptyTrash)
			r.Post("/bulk/restore", trashHandler.BulkRestore)
			r.Post("/bulk/delete", trashHandler.BulkDelete)
		})

		r.Get("/audit", auditHandler.GetUserLog)
		r.Get("/audit/all", auditHandler.GetAllLog)
	})

	// Создаем HTTP сервер
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем HTTP сервер
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Запускаем ежедневную очистку корзины в полночь UTC. Проход
	// повторно-входим, поэтому внеочередной запуск после рестарта безопасен.
	done := make(chan struct{})
	go func() {
		timer := clk.Timer(untilNextMidnightUTC(clk.Now()))
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				result, err := sweeperService.Run(ctx)
				cancel()
				if err != nil {
					log.Printf("Error during retention sweep: %v", err)
				} else {
					log.Printf("Retention sweep: %d notes, %d folders purged", result.NotesDeleted, result.FoldersDeleted)
				}
				timer.Reset(untilNextMidnightUTC(clk.Now()))
			case <-done:
				return
			}
		}
	}()

	// Ожидаем сигнал завершения
	<-quit
	log.Println("Shutting down server...")
	close(done)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}
