package main

import (
	"context"
	"embed"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"freshkeeper/internal/auth"
	"freshkeeper/internal/db"
	"freshkeeper/internal/dispatch"
	"freshkeeper/internal/handlers"
	"freshkeeper/internal/migrations"
	"freshkeeper/internal/queue"
	"freshkeeper/internal/registry"
	"freshkeeper/internal/routes"
	"freshkeeper/internal/scanner"
	"freshkeeper/internal/sweeper"
	"freshkeeper/internal/worker"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func main() {
	if err := migrations.Up(migrationFiles); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	conn, err := db.Connect()
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	auth.InitSecurity()

	users := db.NewUserStore(conn)
	notifications := db.NewNotificationStore(conn)
	pantry := db.NewPantryStore(conn)

	reg := registry.New()
	dispatcher := dispatch.New(notifications, reg, users, os.Getenv("ADMIN_EMAIL"))
	scn := scanner.New(pantry, dispatcher)
	swp := sweeper.New(notifications, sweeper.DefaultRetention)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scheduled jobs run off the request path: the scheduler enqueues on
	// its cron triggers, the worker executes.
	scheduler, err := queue.NewScheduler()
	if err != nil {
		slog.Error("Failed to build scheduler", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("Scheduler stopped", "error", err)
		}
	}()

	w := worker.New(scn, swp)
	go func() {
		if err := w.Start(ctx); err != nil {
			slog.Error("Worker stopped", "error", err)
		}
	}()

	h := handlers.New(users, notifications, pantry, reg, dispatcher)

	e := echo.New()
	api := e.Group("/api/v1")
	routes.SetupRoutes(api, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	e.Logger.Fatal(e.Start(":" + port))
}
