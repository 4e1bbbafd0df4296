package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/canvas"
	"github.com/meikuraledutech/canvas/editor"
	"github.com/meikuraledutech/canvas/flow"
	"github.com/meikuraledutech/canvas/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store canvas.ProjectStore = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	project, err := store.CreateProject(ctx, &canvas.Project{
		UserID: "demo-user",
		Name:   "Token launch",
		Type:   canvas.ProjectToken,
	})
	if err != nil {
		log.Fatalf("create project: %v", err)
	}
	fmt.Printf("project created: %s\n", project.ID)

	// ── Build a graph in the editor ───────────────────────────────────
	ed := editor.New(editor.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))

	mint := canvas.NodeFromSpec(&canvas.ModuleSpec{
		Name:    "Mint tokens",
		Type:    canvas.NodeInstruction,
		Outputs: []canvas.PortSpec{{Name: "minted", Type: canvas.PortToken}},
	}, canvas.Point{X: 100, Y: 100})
	vault := canvas.NodeFromSpec(&canvas.ModuleSpec{
		Name:    "Vault",
		Type:    canvas.NodeAccount,
		Inputs:  []canvas.PortSpec{{Name: "deposit", Type: canvas.PortToken}},
		Outputs: []canvas.PortSpec{{Name: "balance", Type: canvas.PortData}},
	}, canvas.Point{X: 400, Y: 100})
	audit := canvas.NodeFromSpec(&canvas.ModuleSpec{
		Name:   "Audit",
		Type:   canvas.NodeValidator,
		Inputs: []canvas.PortSpec{{Name: "in", Type: canvas.PortAny}},
	}, canvas.Point{X: 700, Y: 100})

	ed.AddNode(mint)
	ed.AddNode(vault)
	ed.AddNode(audit)

	// ── Drag from an output to an input ───────────────────────────────
	ed.StartConnection(mint.ID, mint.Outputs[0].ID, canvas.Output, canvas.Point{X: 300, Y: 160})
	ed.UpdateTempConnection(canvas.Point{X: 380, Y: 160})
	fmt.Printf("\nvault deposit is %s\n", ed.PortState(vault.ID, vault.Inputs[0].ID, canvas.Input))
	fmt.Println("connected:", ed.CompleteConnection(vault.ID, vault.Inputs[0].ID))

	// Dragging backwards from an input works too.
	ed.StartConnection(audit.ID, audit.Inputs[0].ID, canvas.Input, canvas.Point{X: 700, Y: 160})
	fmt.Println("connected:", ed.CompleteConnection(vault.ID, vault.Outputs[0].ID))

	// token into token is fine, but a second identical link is not.
	fmt.Println("duplicate allowed:", ed.ValidateConnection(mint.ID, mint.Outputs[0].ID, vault.ID, vault.Inputs[0].ID))

	// ── Undo / redo ───────────────────────────────────────────────────
	ed.Undo()
	fmt.Printf("\nafter undo: %d connections\n", len(ed.Connections()))
	ed.Redo()
	fmt.Printf("after redo: %d connections\n", len(ed.Connections()))

	entries, idx := ed.History()
	for i, e := range entries {
		marker := " "
		if i == idx {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, e.Action)
	}

	// ── Analyze ───────────────────────────────────────────────────────
	g := ed.Graph()
	fmt.Println("\nflow analysis:")
	printJSON(flow.Analyze(g.Nodes, g.Connections))

	// ── Save and reload ───────────────────────────────────────────────
	data, err := canvas.EncodeGraph(g)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	if _, err := store.UpdateProject(ctx, project.ID, canvas.ProjectUpdate{Data: data}); err != nil {
		log.Fatalf("save: %v", err)
	}

	saved, err := store.GetProject(ctx, project.ID)
	if err != nil {
		log.Fatalf("get project: %v", err)
	}
	loaded, err := canvas.DecodeGraph(saved.Data)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	reopened := editor.New()
	if err := reopened.Load(loaded); err != nil {
		log.Fatalf("load: %v", err)
	}
	fmt.Printf("\nreloaded: %d nodes, %d connections\n", len(reopened.Nodes()), len(reopened.Connections()))

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteProject(ctx, project.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nproject deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
