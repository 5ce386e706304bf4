package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeos/internal/agent"
	"lifeos/internal/fs"
	"lifeos/internal/notify"
	"lifeos/internal/server"
	"lifeos/internal/store"
	"lifeos/internal/tables"
	"lifeos/internal/workspace"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   agent.Output
	err   error
}

func (f *fakeRunner) Run(_ context.Context, _, _ string, args ...string) (agent.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, args)

	return f.out, f.err
}

func (f *fakeRunner) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return nil
	}

	return f.calls[len(f.calls)-1]
}

type testEnv struct {
	srv    *server.Server
	svc    *tables.Service
	hub    *notify.Hub
	runner *fakeRunner
}

func newTestEnv(t *testing.T, files map[string]string, staticDir string) *testEnv {
	t.Helper()

	mem := fs.NewMem()
	mem.SetClock(func() time.Time { return epoch })
	require.NoError(t, mem.MkdirAll("/ws", 0o755))

	for rel, content := range files {
		path := filepath.Join("/ws", rel)
		require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, mem.WriteFileAtomic(path, []byte(content), 0o644))
	}

	st := store.New(store.NewFileBackend(mem, "/data"),
		store.WithClock(func() time.Time { return epoch }),
		store.WithTables(tables.Tasks, tables.Finances, tables.Streams),
	)

	hub := notify.NewHub()
	t.Cleanup(hub.Close)

	svc := tables.New(st, hub, nil)
	runner := &fakeRunner{}

	srv := server.New(server.Deps{
		Tables:    svc,
		Workspace: workspace.NewReader(mem, workspace.DefaultPaths("/ws"), svc, nil),
		Agent:     agent.New("openclaw", "/ws", agent.WithRunner(runner)),
		Hub:       hub,
		StaticDir: staticDir,
		Now:       func() time.Time { return epoch },
	})

	return &testEnv{srv: srv, svc: svc, hub: hub, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestTables_CRUD_Over_HTTP(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	rec := e.do(t, http.MethodPost, "/api/tables/finances", `{"title":"Coffee","amount":4.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", created["status"])
	assert.InDelta(t, 4.5, created["amount"], 0)
	assert.InDelta(t, float64(epoch.UnixMilli()), created["created_at"], 0)

	rec = e.do(t, http.MethodGet, "/api/tables/finances", "")
	require.Equal(t, http.StatusOK, rec.Code)

	listed := decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, id, listed.Data[0]["id"])

	rec = e.do(t, http.MethodPatch, "/api/tables/finances/"+id, `{"status":"paid","id":"hijack"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[map[string]any](t, rec)
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, "paid", updated["status"])
	assert.Equal(t, "Coffee", updated["title"])

	rec = e.do(t, http.MethodDelete, "/api/tables/finances/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	// Deleting again still succeeds.
	rec = e.do(t, http.MethodDelete, "/api/tables/finances/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/tables/finances", "")
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestCORS_Allows_Cross_Origin_Clients(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/tables/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/api/tables/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	rec = httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTables_Update_Missing_Record_Is_404(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	rec := e.do(t, http.MethodPatch, "/api/tables/tasks/nope", `{"status":"completed"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestTables_Rejects_Bad_Input(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "unknown table list", method: http.MethodGet, path: "/api/tables/secrets"},
		{name: "unknown table create", method: http.MethodPost, path: "/api/tables/secrets", body: `{}`},
		{name: "malformed table name", method: http.MethodGet, path: "/api/tables/Bad_Name"},
		{name: "body not an object", method: http.MethodPost, path: "/api/tables/tasks", body: `[1,2]`},
		{name: "body not json", method: http.MethodPost, path: "/api/tables/tasks", body: `{oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := e.do(t, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestTables_Create_With_Empty_Body(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	rec := e.do(t, http.MethodPost, "/api/tables/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "pending", created["status"])
}

func TestTasks_View_Splits_By_Status(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")
	ctx := context.Background()

	_, err := e.svc.Create(ctx, tables.Tasks, map[string]any{"description": "open"})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, tables.Tasks, map[string]any{"description": "done", "status": "completed"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[struct {
		Active    []map[string]any `json:"active"`
		Completed []map[string]any `json:"completed"`
		All       []map[string]any `json:"all"`
	}](t, rec)

	require.Len(t, view.Active, 1)
	require.Len(t, view.Completed, 1)
	assert.Len(t, view.All, 2)
	assert.Equal(t, "open", view.Active[0]["description"])
	assert.Equal(t, "done", view.Completed[0]["description"])
}

func TestStreams_Endpoints(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	rec := e.do(t, http.MethodPost, "/api/streams", `{"title":"Late","scheduledDate":"2025-03-10T20:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	late := decode[map[string]any](t, rec)
	assert.Equal(t, "planned", late["status"])

	rec = e.do(t, http.MethodPost, "/api/streams", `{"title":"Past","scheduledDate":"2025-02-01T20:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/streams", `{"title":"Soon","scheduledDate":"2025-03-02T20:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	type streams struct {
		Streams []map[string]any `json:"streams"`
	}

	titles := func(list []map[string]any) []string {
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s["title"].(string))
		}

		return out
	}

	rec = e.do(t, http.MethodGet, "/api/streams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Past", "Soon", "Late"}, titles(decode[streams](t, rec).Streams))

	rec = e.do(t, http.MethodGet, "/api/streams/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Soon", "Late"}, titles(decode[streams](t, rec).Streams))

	rec = e.do(t, http.MethodPatch, "/api/streams/"+late["id"].(string), `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode[map[string]any](t, rec)["status"])

	rec = e.do(t, http.MethodGet, "/api/streams/upcoming", "")
	assert.Equal(t, []string{"Soon"}, titles(decode[streams](t, rec).Streams))

	rec = e.do(t, http.MethodPatch, "/api/streams/missing", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Stream not found"}`, rec.Body.String())

	rec = e.do(t, http.MethodDelete, "/api/streams/"+late["id"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestWorkspace_Views_Over_HTTP(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, map[string]string{
		"INVENTORY.md": "| Item Name | Variant | Stock | Price | Status | Notes |\n" +
			"| --- | --- | --- | --- | --- | --- |\n" +
			"| **Mug** | Blue | 4 | $12 | Active | Glazed |\n",
		"MEMORY.md":                        "# Memory\n\n## People\n- Ana\n",
		"projects/album.md":                "---\ntitle: Album\nstatus: Recording\n---\nBody\n",
		"memory/journal/2025-02-20.md":     "older",
		"memory/journal/2025-02-21.md":     "newer",
		"assets/logos/mark.svg":            "<svg/>",
		"content_calendar_a_few_things.md": "# Plan\n\n## Week 1 (Mar 3-9)\n### Monday 3 (Mar)\n- **Post:** teaser\n",
	}, "")

	rec := e.do(t, http.MethodGet, "/api/inventory", "")
	require.Equal(t, http.StatusOK, rec.Code)

	inv := decode[workspace.Inventory](t, rec)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Mug", inv.Items[0].Name)
	assert.Contains(t, inv.Raw, "Item Name")

	rec = e.do(t, http.MethodGet, "/api/journal", "")
	journal := decode[struct {
		Entries []workspace.JournalEntry `json:"entries"`
	}](t, rec)
	require.Len(t, journal.Entries, 2)
	assert.Equal(t, "2025-02-21", journal.Entries[0].Date)

	rec = e.do(t, http.MethodGet, "/api/projects/detailed", "")
	projects := decode[struct {
		Projects []map[string]any `json:"projects"`
	}](t, rec)
	require.Len(t, projects.Projects, 1)
	assert.Equal(t, "Album", projects.Projects[0]["title"])
	assert.Equal(t, "Recording", projects.Projects[0]["status"])

	rec = e.do(t, http.MethodGet, "/api/memory/all", "")
	assert.JSONEq(t, `{"sections":{"People":["- Ana"]}}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/assets/library", "")
	assets := decode[struct {
		Categories map[string][]workspace.Asset `json:"categories"`
	}](t, rec)
	require.Len(t, assets.Categories["logos"], 1)
	assert.Equal(t, "mark.svg", assets.Categories["logos"][0].Name)

	rec = e.do(t, http.MethodGet, "/api/content/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cal struct {
		Title string `json:"title"`
		Weeks []struct {
			Number int `json:"number"`
		} `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	assert.Equal(t, "Plan", cal.Title)
	require.Len(t, cal.Weeks, 1)

	_, err := e.svc.Create(context.Background(), tables.Tasks, map[string]any{"description": "x"})
	require.NoError(t, err)

	rec = e.do(t, http.MethodGet, "/api/analytics", "")
	stats := decode[workspace.Analytics](t, rec)
	assert.Equal(t, 1, stats.TaskCount)
	assert.Equal(t, 1, stats.ProjectCount)
}

func TestAgent_Endpoints(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")
		e.runner.out = agent.Output{Stdout: "gateway: up\n"}

		rec := e.do(t, http.MethodGet, "/api/status", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"gateway: up\n"}`, rec.Body.String())
		assert.Equal(t, []string{"status"}, e.runner.lastArgs())
	})

	t.Run("status failure is 500", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")
		e.runner.err = errors.New("boom")

		rec := e.do(t, http.MethodGet, "/api/status", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "boom")
	})

	t.Run("subagents unauthorized degrades", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")
		e.runner.out = agent.Output{Stderr: "Error: unauthorized device"}
		e.runner.err = errors.New("exit status 1")

		rec := e.do(t, http.MethodGet, "/api/subagents", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"subagents":[],"warning":"`+agent.AuthWarning+`","error":"`+agent.AuthError+`"}`, rec.Body.String())
	})

	t.Run("spawn", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")
		e.runner.out = agent.Output{Stdout: "scheduled"}

		rec := e.do(t, http.MethodPost, "/api/subagents/spawn", `{"task":"write notes","agentId":"main"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		spawned := decode[agent.Spawned](t, rec)
		assert.Equal(t, "scheduled", spawned.Result)
		assert.True(t, strings.HasPrefix(spawned.JobID, "dash-write notes-"), spawned.JobID)
		assert.Contains(t, e.runner.lastArgs(), "--agent")
	})

	t.Run("spawn without task is 400", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")

		rec := e.do(t, http.MethodPost, "/api/subagents/spawn", `{"task":"  "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, e.runner.lastArgs())
	})

	t.Run("kill", func(t *testing.T) {
		t.Parallel()

		e := newTestEnv(t, nil, "")
		e.runner.out = agent.Output{Stdout: "killed"}

		rec := e.do(t, http.MethodPost, "/api/subagents/kill", `{"target":"job-1"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"result":"killed"}`, rec.Body.String())
		assert.Equal(t, []string{"subagents", "kill", "--target", "job-1"}, e.runner.lastArgs())
	})
}

func TestStatic_Serves_Files_With_Index_Fallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dash</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	e := newTestEnv(t, nil, dir)

	rec := e.do(t, http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/finances/march", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>dash</html>", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestStatic_Disabled_Without_Dir(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, "")

	rec := e.do(t, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
