package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/config"
	"github.com/morabagipravin/task-manager-api/internal/handler"
	"github.com/morabagipravin/task-manager-api/internal/middleware"
	"github.com/morabagipravin/task-manager-api/internal/reminder"
	"github.com/morabagipravin/task-manager-api/internal/repository"
	"github.com/morabagipravin/task-manager-api/internal/service"
	"github.com/morabagipravin/task-manager-api/internal/storage"
	"github.com/morabagipravin/task-manager-api/internal/utils/email"
	"github.com/morabagipravin/task-manager-api/migrations"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Apply schema migrations
	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatalf("Failed to set migration dialect: %v", err)
	}
	if err := goose.UpContext(context.Background(), db, "."); err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize layers
	files, err := storage.NewFileStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize file store: %v", err)
	}
	repo := repository.NewRepository(db)
	authSvc := service.NewAuthService(repo, files, logger, cfg)
	taskSvc := service.NewTaskService(repo, files, logger)
	h := handler.NewHandler(authSvc, taskSvc, files, logger)

	// Due-date reminder mail, if SMTP is configured
	sender := email.NewSender(cfg, logger)
	if sender.Enabled() {
		notifier := reminder.NewNotifier(repo, sender, logger)
		c := cron.New()
		if _, err := c.AddFunc(cfg.ReminderSchedule, notifier.Run); err != nil {
			logger.Fatalf("Failed to schedule reminders: %v", err)
		}
		c.Start()
		defer c.Stop()
		logger.Infof("Due-date reminders scheduled: %s", cfg.ReminderSchedule)
	}

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.HandleFunc("/health", h.Health).Methods("GET")

	// Public routes
	r.HandleFunc("/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")

	// Protected auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.Use(middleware.Auth(authSvc, logger))
	authRouter.HandleFunc("/profile", h.GetProfile).Methods("GET")
	authRouter.HandleFunc("/profile", h.UpdateProfile).Methods("PUT")
	authRouter.HandleFunc("/account", h.DeleteAccount).Methods("DELETE")
	authRouter.HandleFunc("/refresh-token", h.RefreshToken).Methods("POST")

	// Protected task routes
	taskRouter := r.PathPrefix("/tasks").Subrouter()
	taskRouter.Use(middleware.Auth(authSvc, logger))
	taskRouter.HandleFunc("", h.CreateTask).Methods("POST")
	taskRouter.HandleFunc("", h.ListTasks).Methods("GET")
	taskRouter.HandleFunc("/stats", h.GetTaskStats).Methods("GET")
	taskRouter.HandleFunc("/export", h.ExportTasks).Methods("GET")
	taskRouter.HandleFunc("/{id:[0-9]+}/download", h.DownloadAttachment).Methods("GET")
	taskRouter.HandleFunc("/{id:[0-9]+}", h.GetTask).Methods("GET")
	taskRouter.HandleFunc("/{id:[0-9]+}", h.UpdateTask).Methods("PUT")
	taskRouter.HandleFunc("/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
