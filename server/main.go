package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/canvas"
	"github.com/meikuraledutech/canvas/editor"
	"github.com/meikuraledutech/canvas/generate"
	"github.com/meikuraledutech/canvas/postgres"
)

func main() {
	cfg, err := loadConfig(os.Getenv("CANVAS_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	logger := newLogger(cfg.Log, os.Stderr)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store canvas.ProjectStore = postgres.New(pool)

	var gen canvas.Generator
	if cfg.GeneratorURL != "" {
		gen = generate.New(cfg.GeneratorURL, nil)
	}

	open := newSessions(
		editor.WithLogger(logger),
		editor.WithHistoryCapacity(cfg.HistoryCapacity),
	)

	app := newApp(store, open, gen, logger)
	logger.Info("listening", "addr", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

// newApp wires every route. gen may be nil, in which case module generation
// answers 501.
func newApp(store canvas.ProjectStore, open *sessions, gen canvas.Generator, logger *slog.Logger) *fiber.App {
	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	projectRoutes(app, store, open, logger)
	editorRoutes(app, store, open, gen, logger)
	return app
}
