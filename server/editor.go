package main

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/meikuraledutech/canvas"
	"github.com/meikuraledutech/canvas/editor"
	"github.com/meikuraledutech/canvas/flow"
)

type portRef struct {
	NodeID    string           `json:"node_id"`
	PortID    string           `json:"port_id"`
	Direction canvas.Direction `json:"direction,omitempty"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
}

// withEditor resolves the open session for :id or answers 404.
func withEditor(open *sessions, fn func(c fiber.Ctx, e *editor.Editor) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		e, ok := open.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "project is not open"})
		}
		return fn(c, e)
	}
}

func editorRoutes(app *fiber.App, store canvas.ProjectStore, open *sessions, gen canvas.Generator, logger *slog.Logger) {
	// ── Session ───────────────────────────────────────────────────────
	app.Post("/projects/:id/open", func(c fiber.Ctx) error {
		p, err := store.GetProject(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if p == nil {
			return c.Status(404).JSON(fiber.Map{"error": "project not found"})
		}
		g, err := canvas.DecodeGraph(p.Data)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		e, err := open.start(p.ID, g)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Info("project opened", "project", p.ID, "nodes", len(g.Nodes))
		return c.JSON(e.State())
	})

	app.Post("/projects/:id/save", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		g := e.Graph()
		if err := g.Validate(); err != nil {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		data, err := canvas.EncodeGraph(g)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		p, err := store.UpdateProject(c.Context(), c.Params("id"), canvas.ProjectUpdate{Data: data})
		return projectResult(c, p, err)
	}))

	ed := app.Group("/projects/:id/editor")

	ed.Get("/", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		return c.JSON(e.State())
	}))

	ed.Delete("/", func(c fiber.Ctx) error {
		open.close(c.Params("id"))
		return c.SendStatus(204)
	})

	ed.Get("/history", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		entries, idx := e.History()
		type item struct {
			Action    string `json:"action"`
			Timestamp int64  `json:"timestamp"`
		}
		items := make([]item, len(entries))
		for i, en := range entries {
			items[i] = item{Action: en.Action, Timestamp: en.Timestamp.UnixMilli()}
		}
		return c.JSON(fiber.Map{"entries": items, "index": idx})
	}))

	// ── Nodes ─────────────────────────────────────────────────────────
	ed.Post("/nodes", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var n canvas.Node
		if err := c.Bind().JSON(&n); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if !e.AddNode(n) {
			return c.Status(409).JSON(fiber.Map{"error": "node id already in use"})
		}
		return c.Status(201).JSON(e.State())
	}))

	ed.Patch("/nodes/:nodeId", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var u editor.NodeUpdate
		if err := c.Bind().JSON(&u); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if !e.UpdateNode(c.Params("nodeId"), u) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.JSON(e.State())
	}))

	ed.Delete("/nodes/:nodeId", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		if !e.DeleteNode(c.Params("nodeId")) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.JSON(e.State())
	}))

	ed.Put("/selection", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var body struct {
			NodeID string `json:"node_id"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		e.SelectNode(body.NodeID)
		return c.JSON(e.State())
	}))

	ed.Post("/modules", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var body struct {
			Spec canvas.ModuleSpec `json:"spec"`
			X    float64           `json:"x"`
			Y    float64           `json:"y"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if !e.AddNode(canvas.NodeFromSpec(&body.Spec, canvas.Point{X: body.X, Y: body.Y})) {
			return c.Status(409).JSON(fiber.Map{"error": "node id already in use"})
		}
		return c.Status(201).JSON(e.State())
	}))

	ed.Post("/modules/generate", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		if gen == nil {
			return c.Status(501).JSON(fiber.Map{"error": "module generation is not configured"})
		}
		var body struct {
			Description string          `json:"description"`
			ModuleType  canvas.NodeType `json:"module_type"`
			X           float64         `json:"x"`
			Y           float64         `json:"y"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		// The editor is only touched once the service has answered.
		spec, err := gen.Generate(c.Context(), body.Description, body.ModuleType)
		if err != nil {
			logger.Warn("module generation failed", "error", err)
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
		if !e.AddNode(canvas.NodeFromSpec(spec, canvas.Point{X: body.X, Y: body.Y})) {
			return c.Status(409).JSON(fiber.Map{"error": "node id already in use"})
		}
		return c.Status(201).JSON(e.State())
	}))

	// ── Connections ───────────────────────────────────────────────────
	ed.Post("/connections", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var conn canvas.Connection
		if err := c.Bind().JSON(&conn); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if !e.AddConnection(conn) {
			return rejected(c, e.CheckConnection(conn.SourceNodeID, conn.SourcePortID, conn.TargetNodeID, conn.TargetPortID))
		}
		return c.Status(201).JSON(e.State())
	}))

	ed.Delete("/connections/:connId", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		if !e.DeleteConnection(c.Params("connId")) {
			return c.Status(404).JSON(fiber.Map{"error": "connection not found"})
		}
		return c.JSON(e.State())
	}))

	// ── Gesture ───────────────────────────────────────────────────────
	ed.Post("/gesture/start", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var p portRef
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if !e.StartConnection(p.NodeID, p.PortID, p.Direction, canvas.Point{X: p.X, Y: p.Y}) {
			return c.Status(409).JSON(fiber.Map{"error": "cannot start connection"})
		}
		return c.JSON(e.State())
	}))

	ed.Post("/gesture/move", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var pos canvas.Point
		if err := c.Bind().JSON(&pos); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		e.UpdateTempConnection(pos)
		return c.JSON(e.State())
	}))

	ed.Post("/gesture/complete", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var p portRef
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ok := e.CompleteConnection(p.NodeID, p.PortID)
		return c.JSON(fiber.Map{"connected": ok, "state": e.State()})
	}))

	ed.Post("/gesture/cancel", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		e.CancelConnection()
		return c.JSON(e.State())
	}))

	ed.Post("/keys", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		var body struct {
			Key string `json:"key"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		handled := e.HandleKey(body.Key)
		return c.JSON(fiber.Map{"handled": handled, "state": e.State()})
	}))

	ed.Get("/ports/:nodeId/:portId", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		dir := canvas.Direction(c.Query("direction"))
		if dir != canvas.Input && dir != canvas.Output {
			return c.Status(400).JSON(fiber.Map{"error": "direction must be input or output"})
		}
		s := e.PortState(c.Params("nodeId"), c.Params("portId"), dir)
		return c.JSON(fiber.Map{"state": s.String()})
	}))

	// ── History ───────────────────────────────────────────────────────
	ed.Post("/undo", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		e.Undo()
		return c.JSON(e.State())
	}))

	ed.Post("/redo", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		e.Redo()
		return c.JSON(e.State())
	}))

	ed.Post("/clear", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		e.ClearCanvas()
		return c.JSON(e.State())
	}))

	// ── Analysis ──────────────────────────────────────────────────────
	ed.Get("/flow", withEditor(open, func(c fiber.Ctx, e *editor.Editor) error {
		g := e.Graph()
		return c.JSON(flow.Analyze(g.Nodes, g.Connections))
	}))
}

// rejected reports a refused connection with its reason.
func rejected(c fiber.Ctx, reason error) error {
	msg := "connection rejected"
	if reason != nil {
		msg = reason.Error()
	}
	status := 422
	if errors.Is(reason, canvas.ErrNodeNotFound) || errors.Is(reason, canvas.ErrPortNotFound) {
		status = 404
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
