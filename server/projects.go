package main

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/canvas"
)

func projectRoutes(app *fiber.App, store canvas.ProjectStore, open *sessions, logger *slog.Logger) {
	app.Post("/projects", func(c fiber.Ctx) error {
		var p canvas.Project
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if p.UserID == "" || p.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id and name are required"})
		}
		created, err := store.CreateProject(c.Context(), &p)
		if err != nil {
			logger.Error("create project", "error", err)
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(created)
	})

	app.Get("/projects", func(c fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
		}
		projects, err := store.ListProjects(c.Context(), userID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(projects)
	})

	app.Get("/projects/:id", func(c fiber.Ctx) error {
		p, err := store.GetProject(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if p == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		return c.JSON(p)
	})

	app.Put("/projects/:id", func(c fiber.Ctx) error {
		var u canvas.ProjectUpdate
		if err := c.Bind().JSON(&u); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if len(u.Data) > 0 {
			g, err := canvas.DecodeGraph(u.Data)
			if err == nil {
				err = g.Validate()
			}
			if err != nil {
				return c.Status(422).JSON(fiber.Map{"error": err.Error()})
			}
		}
		p, err := store.UpdateProject(c.Context(), c.Params("id"), u)
		return projectResult(c, p, err)
	})

	app.Post("/projects/:id/duplicate", func(c fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := c.Bind().JSON(&body); err != nil || body.UserID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
		}
		p, err := store.DuplicateProject(c.Context(), c.Params("id"), body.UserID)
		if err != nil {
			return projectResult(c, nil, err)
		}
		return c.Status(201).JSON(p)
	})

	app.Post("/projects/:id/archive", func(c fiber.Ctx) error {
		p, err := store.ArchiveProject(c.Context(), c.Params("id"))
		if err == nil {
			open.close(c.Params("id"))
		}
		return projectResult(c, p, err)
	})

	app.Delete("/projects/:id", func(c fiber.Ctx) error {
		if err := store.DeleteProject(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		open.close(c.Params("id"))
		return c.SendStatus(204)
	})
}

func projectResult(c fiber.Ctx, p *canvas.Project, err error) error {
	if errors.Is(err, canvas.ErrProjectNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(p)
}
