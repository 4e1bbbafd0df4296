package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/canvas"
	"github.com/meikuraledutech/canvas/editor"
	"github.com/meikuraledutech/canvas/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory canvas.ProjectStore.
type memStore struct {
	mu       sync.Mutex
	projects map[string]canvas.Project
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{projects: make(map[string]canvas.Project)}
}

func (m *memStore) CreateSchema(ctx context.Context) error { return nil }
func (m *memStore) DropSchema(ctx context.Context) error   { return nil }

func (m *memStore) CreateProject(ctx context.Context, p *canvas.Project) (*canvas.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if p.ID == "" {
		p.ID = "p" + string(rune('0'+m.nextID))
	}
	if p.Status == "" {
		p.Status = canvas.StatusDraft
	}
	if p.Network == "" {
		p.Network = canvas.Devnet
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = *p
	out := *p
	return &out, nil
}

func (m *memStore) GetProject(ctx context.Context, id string) (*canvas.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) ListProjects(ctx context.Context, userID string) ([]canvas.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []canvas.Project{}
	for _, p := range m.projects {
		if p.UserID == userID && !p.IsArchived {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) UpdateProject(ctx context.Context, id string, u canvas.ProjectUpdate) (*canvas.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, canvas.ErrProjectNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Data != nil {
		p.Data = u.Data
	}
	m.projects[id] = p
	return &p, nil
}

func (m *memStore) DuplicateProject(ctx context.Context, id, userID string) (*canvas.Project, error) {
	src, err := m.GetProject(ctx, id)
	if err != nil || src == nil {
		return nil, canvas.ErrProjectNotFound
	}
	return m.CreateProject(ctx, &canvas.Project{UserID: userID, Name: src.Name + " (Copy)", Data: src.Data})
}

func (m *memStore) ArchiveProject(ctx context.Context, id string) (*canvas.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, canvas.ErrProjectNotFound
	}
	p.IsArchived = true
	m.projects[id] = p
	return &p, nil
}

func (m *memStore) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

type fakeGenerator struct {
	spec *canvas.ModuleSpec
	err  error
}

func (f fakeGenerator) Generate(ctx context.Context, description string, hint canvas.NodeType) (*canvas.ModuleSpec, error) {
	return f.spec, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	t     *testing.T
	app   *fiber.App
	store *memStore
}

func newHarness(t *testing.T, gen canvas.Generator) *harness {
	t.Helper()
	store := newMemStore()
	return &harness{t: t, app: newApp(store, newSessions(), gen, discardLogger()), store: store}
}

// do sends a JSON request and decodes the JSON response into out (if not
// nil). It returns the status code.
func (h *harness) do(method, path string, body any, out any) int {
	h.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.app.Test(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) openProject() string {
	h.t.Helper()
	var p canvas.Project
	require.Equal(h.t, 201, h.do(http.MethodPost, "/projects", map[string]any{"user_id": "u1", "name": "demo"}, &p))
	require.Equal(h.t, 200, h.do(http.MethodPost, "/projects/"+p.ID+"/open", nil, nil))
	return p.ID
}

func (h *harness) addPair(id string, outType, inType canvas.PortType) {
	h.t.Helper()
	a := canvas.Node{ID: "a", Name: "A", Type: canvas.NodeInstruction, Outputs: []canvas.Port{{ID: "out1", Type: outType}}}
	b := canvas.Node{ID: "b", Name: "B", Type: canvas.NodeAccount, Inputs: []canvas.Port{{ID: "in1", Type: inType}}}
	require.Equal(h.t, 201, h.do(http.MethodPost, "/projects/"+id+"/editor/nodes", a, nil))
	require.Equal(h.t, 201, h.do(http.MethodPost, "/projects/"+id+"/editor/nodes", b, nil))
}

func TestServer_EditorRequiresOpenProject(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, 404, h.do(http.MethodGet, "/projects/nope/editor", nil, nil))
	assert.Equal(t, 404, h.do(http.MethodPost, "/projects/nope/open", nil, nil))
}

func TestServer_GestureFlow(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)
	base := "/projects/" + id + "/editor"

	var state editor.State
	require.Equal(t, 200, h.do(http.MethodPost, base+"/gesture/start",
		portRef{NodeID: "a", PortID: "out1", Direction: canvas.Output, X: 5, Y: 5}, &state))
	assert.True(t, state.ConnectionState.Connecting)

	var ps struct {
		State string `json:"state"`
	}
	require.Equal(t, 200, h.do(http.MethodGet, base+"/ports/b/in1?direction=input", nil, &ps))
	assert.Equal(t, "compatible", ps.State)

	var done struct {
		Connected bool         `json:"connected"`
		State     editor.State `json:"state"`
	}
	require.Equal(t, 200, h.do(http.MethodPost, base+"/gesture/complete", portRef{NodeID: "b", PortID: "in1"}, &done))
	assert.True(t, done.Connected)
	require.Len(t, done.State.Connections, 1)
	assert.Equal(t, "a", done.State.Connections[0].SourceNodeID)
	assert.Equal(t, "b", done.State.Connections[0].TargetNodeID)
	assert.False(t, done.State.ConnectionState.Connecting)
}

func TestServer_RejectedConnection(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortToken, canvas.PortNFT)

	conn := canvas.Connection{SourceNodeID: "a", SourcePortID: "out1", TargetNodeID: "b", TargetPortID: "in1"}
	var errBody map[string]string
	assert.Equal(t, 422, h.do(http.MethodPost, "/projects/"+id+"/editor/connections", conn, &errBody))
	assert.Contains(t, errBody["error"], "incompatible")

	var state editor.State
	h.do(http.MethodGet, "/projects/"+id+"/editor", nil, &state)
	assert.Empty(t, state.Connections)
}

func TestServer_EscapeCancels(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)
	base := "/projects/" + id + "/editor"

	require.Equal(t, 200, h.do(http.MethodPost, base+"/gesture/start", portRef{NodeID: "b", PortID: "in1", Direction: canvas.Input}, nil))

	var res struct {
		Handled bool         `json:"handled"`
		State   editor.State `json:"state"`
	}
	require.Equal(t, 200, h.do(http.MethodPost, base+"/keys", map[string]string{"key": "Escape"}, &res))
	assert.True(t, res.Handled)
	assert.False(t, res.State.ConnectionState.Connecting)
}

func TestServer_UndoRedoAndFlow(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)
	base := "/projects/" + id + "/editor"

	conn := canvas.Connection{ID: "c1", SourceNodeID: "a", SourcePortID: "out1", TargetNodeID: "b", TargetPortID: "in1"}
	require.Equal(t, 201, h.do(http.MethodPost, base+"/connections", conn, nil))

	var analysis flow.Analysis
	require.Equal(t, 200, h.do(http.MethodGet, base+"/flow", nil, &analysis))
	assert.Equal(t, []string{"a", "b"}, analysis.ExecutionOrder)
	assert.Empty(t, analysis.IsolatedNodes)

	var state editor.State
	require.Equal(t, 200, h.do(http.MethodPost, base+"/undo", nil, &state))
	assert.Empty(t, state.Connections)
	assert.True(t, state.CanRedo)

	require.Equal(t, 200, h.do(http.MethodPost, base+"/redo", nil, &state))
	assert.Len(t, state.Connections, 1)

	require.Equal(t, 200, h.do(http.MethodDelete, base+"/nodes/a", nil, &state))
	assert.Empty(t, state.Connections)
	assert.Equal(t, 404, h.do(http.MethodDelete, base+"/nodes/a", nil, nil))
}

func TestServer_SaveAndReopen(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)
	base := "/projects/" + id + "/editor"

	conn := canvas.Connection{ID: "c1", SourceNodeID: "a", SourcePortID: "out1", TargetNodeID: "b", TargetPortID: "in1"}
	require.Equal(t, 201, h.do(http.MethodPost, base+"/connections", conn, nil))
	require.Equal(t, 200, h.do(http.MethodPost, "/projects/"+id+"/save", nil, nil))

	require.Equal(t, 200, h.do(http.MethodPost, base+"/clear", nil, nil))

	var state editor.State
	require.Equal(t, 200, h.do(http.MethodPost, "/projects/"+id+"/open", nil, &state))
	assert.Len(t, state.Nodes, 2)
	require.Len(t, state.Connections, 1)
	assert.Equal(t, "c1", state.Connections[0].ID)
	assert.False(t, state.CanUndo)
}

func TestServer_RejectsDanglingProjectData(t *testing.T) {
	h := newHarness(t, nil)
	var p canvas.Project
	require.Equal(t, 201, h.do(http.MethodPost, "/projects", map[string]any{"user_id": "u1", "name": "demo"}, &p))

	bad := json.RawMessage(`{"nodes":[],"connections":[{"id":"c","sourceNodeId":"x","sourcePortId":"o","targetNodeId":"y","targetPortId":"i"}]}`)
	assert.Equal(t, 422, h.do(http.MethodPut, "/projects/"+p.ID, map[string]any{"project_data": bad}, nil))
}

func TestServer_ModuleFromSpec(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()

	body := map[string]any{
		"spec": canvas.ModuleSpec{Name: "Transfer", Type: canvas.NodeProcessor,
			Inputs: []canvas.PortSpec{{Name: "from", Type: canvas.PortAccount}}},
		"x": 10, "y": 20,
	}
	var state editor.State
	require.Equal(t, 201, h.do(http.MethodPost, "/projects/"+id+"/editor/modules", body, &state))
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, "Transfer", state.Nodes[0].Name)
	assert.True(t, state.Nodes[0].AIGenerated)

	assert.Equal(t, 501, h.do(http.MethodPost, "/projects/"+id+"/editor/modules/generate", map[string]string{"description": "x"}, nil))
}

func TestServer_GenerateModule(t *testing.T) {
	h := newHarness(t, fakeGenerator{spec: &canvas.ModuleSpec{Name: "Mint", Type: canvas.NodeInstruction}})
	id := h.openProject()

	var state editor.State
	require.Equal(t, 201, h.do(http.MethodPost, "/projects/"+id+"/editor/modules/generate",
		map[string]string{"description": "mint tokens", "module_type": "instruction"}, &state))
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, "Mint", state.Nodes[0].Name)
}

func TestServer_GenerateFailureLeavesEditorAlone(t *testing.T) {
	h := newHarness(t, fakeGenerator{err: assert.AnError})
	id := h.openProject()

	assert.Equal(t, 502, h.do(http.MethodPost, "/projects/"+id+"/editor/modules/generate",
		map[string]string{"description": "mint tokens"}, nil))

	var state editor.State
	h.do(http.MethodGet, "/projects/"+id+"/editor", nil, &state)
	assert.Empty(t, state.Nodes)
	assert.False(t, state.CanUndo)
}

func TestServer_ProjectLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()

	var dup canvas.Project
	require.Equal(t, 201, h.do(http.MethodPost, "/projects/"+id+"/duplicate", map[string]string{"user_id": "u1"}, &dup))
	assert.Equal(t, "demo (Copy)", dup.Name)

	require.Equal(t, 200, h.do(http.MethodPost, "/projects/"+id+"/archive", nil, nil))
	assert.Equal(t, 404, h.do(http.MethodGet, "/projects/"+id+"/editor", nil, nil))

	var list []canvas.Project
	require.Equal(t, 200, h.do(http.MethodGet, "/projects?user_id=u1", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, dup.ID, list[0].ID)

	assert.Equal(t, 204, h.do(http.MethodDelete, "/projects/"+dup.ID, nil, nil))
	assert.Equal(t, 404, h.do(http.MethodGet, "/projects/"+dup.ID, nil, nil))
	assert.Equal(t, 404, h.do(http.MethodPost, "/projects/nope/archive", nil, nil))
}

func TestServer_ReusedIDsStillReopen(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)
	base := "/projects/" + id + "/editor"

	dupNode := canvas.Node{ID: "a", Name: "again", Type: canvas.NodeCustom}
	assert.Equal(t, 409, h.do(http.MethodPost, base+"/nodes", dupNode, nil))

	extra := canvas.Node{ID: "c", Name: "C", Type: canvas.NodeAccount, Inputs: []canvas.Port{{ID: "in1", Type: canvas.PortData}}}
	require.Equal(t, 201, h.do(http.MethodPost, base+"/nodes", extra, nil))

	first := canvas.Connection{ID: "c1", SourceNodeID: "a", SourcePortID: "out1", TargetNodeID: "b", TargetPortID: "in1"}
	second := canvas.Connection{ID: "c1", SourceNodeID: "a", SourcePortID: "out1", TargetNodeID: "c", TargetPortID: "in1"}
	require.Equal(t, 201, h.do(http.MethodPost, base+"/connections", first, nil))
	require.Equal(t, 201, h.do(http.MethodPost, base+"/connections", second, nil))
	require.Equal(t, 200, h.do(http.MethodPost, "/projects/"+id+"/save", nil, nil))

	var state editor.State
	require.Equal(t, 200, h.do(http.MethodPost, "/projects/"+id+"/open", nil, &state))
	assert.Len(t, state.Nodes, 3)
	require.Len(t, state.Connections, 2)
	assert.NotEqual(t, state.Connections[0].ID, state.Connections[1].ID)
	assert.Equal(t, "c1", state.Connections[0].ID)
}

func TestServer_GestureStartNeedsDirection(t *testing.T) {
	h := newHarness(t, nil)
	id := h.openProject()
	h.addPair(id, canvas.PortData, canvas.PortData)

	assert.Equal(t, 409, h.do(http.MethodPost, "/projects/"+id+"/editor/gesture/start", portRef{NodeID: "a", PortID: "out1"}, nil))
}
