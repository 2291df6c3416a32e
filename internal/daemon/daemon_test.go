//go:build unix

package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/history"
	"github.com/gurisko/shipyard/internal/runner"
)

// fakeRunner succeeds at everything and prints one line when packaging.
type fakeRunner struct{}

func (fakeRunner) Run(context.Context, string, []string, runner.Opts) (runner.Result, error) {
	return runner.Result{}, nil
}

func (fakeRunner) Stream(context.Context, string, []string, runner.Opts) (*runner.Stream, error) {
	return runner.Replay(runner.Result{}, nil, "packaging app\n"), nil
}

func newTestDaemon(t *testing.T) (*Daemon, http.Handler) {
	t.Helper()
	state := t.TempDir()
	d, err := New(&Config{
		SocketPath:   filepath.Join(state, "d.sock"),
		PIDFile:      filepath.Join(state, "d.pid"),
		RegistryPath: filepath.Join(state, "projects.yaml"),
		HistoryPath:  filepath.Join(state, "history.db"),
		TemplatesDir: filepath.Join(state, "templates"),
		Runner:       fakeRunner{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	store, err := history.Open(d.historyPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	d.history = store
	d.builder.Recorder = store

	mux := http.NewServeMux()
	d.setupRoutes(mux)
	return d, mux
}

func newProject(t *testing.T, pkg string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "node_modules", "electron"), 0o755); err != nil {
		t.Fatal(err)
	}
	canon, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	return canon
}

const readyManifest = `{"name":"app","description":"d","main":"main.js","devDependencies":{"electron":"^30.0.0","electron-builder":"^26.0.12"}}`

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, &buf))
	return rec
}

func manifestURL(dir string) string {
	return "/api/manifest?project_path=" + url.QueryEscape(dir)
}

func TestHealth(t *testing.T) {
	_, h := newTestDaemon(t)
	rec := do(t, h, http.MethodGet, "/health", nil)
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || health.Status != "ok" {
		t.Errorf("health = %d %+v", rec.Code, health)
	}
}

func TestProjects_RegisterListRemove(t *testing.T) {
	_, h := newTestDaemon(t)
	dir := newProject(t, readyManifest)

	rec := do(t, h, http.MethodPost, "/api/projects", RegisterProjectRequest{Path: dir})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", rec.Code, rec.Body)
	}
	var reg RegisterProjectResponse
	if err := json.NewDecoder(rec.Body).Decode(&reg); err != nil {
		t.Fatal(err)
	}
	if reg.Project.Name != filepath.Base(dir) {
		t.Errorf("name = %q, want directory name", reg.Project.Name)
	}

	if rec := do(t, h, http.MethodPost, "/api/projects", RegisterProjectRequest{Path: dir}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/projects", nil)
	var list ListProjectsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Projects) != 1 || list.Projects[0].Path != dir {
		t.Fatalf("list = %+v", list.Projects)
	}

	if rec := do(t, h, http.MethodDelete, "/api/projects/"+reg.Project.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("remove = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/projects/"+reg.Project.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second remove = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/projects/not-an-id", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", rec.Code)
	}
}

func TestManifest_OpenReconcilesAndSaves(t *testing.T) {
	_, h := newTestDaemon(t)
	dir := newProject(t, `{"name":"app","dependencies":{"electron":"^30.2.0"}}`)

	rec := do(t, h, http.MethodGet, manifestURL(dir), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("open = %d %s", rec.Code, rec.Body)
	}
	var opened ManifestResponse
	if err := json.NewDecoder(rec.Body).Decode(&opened); err != nil {
		t.Fatal(err)
	}
	if len(opened.Fixes) == 0 {
		t.Error("expected fixes for electron under dependencies")
	}
	if opened.Manifest.DevDependencies["electron"] != "^30.2.0" {
		t.Errorf("devDependencies = %v", opened.Manifest.DevDependencies)
	}

	m := opened.Manifest
	m.Version = "2.0.0"
	rec = do(t, h, http.MethodPut, manifestURL(dir), m)
	if rec.Code != http.StatusOK {
		t.Fatalf("save = %d %s", rec.Code, rec.Body)
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version": "2.0.0"`) {
		t.Errorf("saved file:\n%s", data)
	}
}

func TestManifest_Errors(t *testing.T) {
	_, h := newTestDaemon(t)

	if rec := do(t, h, http.MethodGet, "/api/manifest", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("no path = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, manifestURL(t.TempDir()), nil); rec.Code != http.StatusNotFound {
		t.Errorf("no package.json = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, manifestURL(t.TempDir()), nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE = %d, want 405", rec.Code)
	}
}

func TestTemplatesAndPlatform(t *testing.T) {
	d, h := newTestDaemon(t)

	rec := do(t, h, http.MethodGet, "/api/templates", nil)
	var tr TemplatesResponse
	if err := json.NewDecoder(rec.Body).Decode(&tr); err != nil {
		t.Fatal(err)
	}
	if len(tr.Templates) < 3 || tr.Templates[0].Key != "basic" {
		t.Errorf("templates = %+v", tr.Templates)
	}

	rec = do(t, h, http.MethodGet, "/api/platform", nil)
	var pr PlatformResponse
	if err := json.NewDecoder(rec.Body).Decode(&pr); err != nil {
		t.Fatal(err)
	}
	if pr.Host != d.host || len(pr.Targets) == 0 {
		t.Errorf("platform = %+v", pr)
	}
}

func TestBuild_StreamsEventsAndRecordsHistory(t *testing.T) {
	_, h := newTestDaemon(t)
	dir := newProject(t, readyManifest)

	rec := do(t, h, http.MethodPost, "/api/build", BuildRequest{ProjectPath: dir, Platforms: []string{"linux", "win"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("build = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}

	var events []build.Event
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var e build.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		events = append(events, e)
	}
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.Type != build.EventComplete || !last.Succeeded() {
		t.Errorf("last event = %+v", last)
	}
	var sawOutput bool
	for _, e := range events {
		if e.Type == build.EventLog && e.Text == "packaging app\n" {
			sawOutput = true
		}
	}
	if !sawOutput {
		t.Errorf("packager output missing from %+v", events)
	}

	rec = do(t, h, http.MethodGet, "/api/history?project_path="+url.QueryEscape(dir), nil)
	var hr HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&hr); err != nil {
		t.Fatal(err)
	}
	if len(hr.Builds) != 1 || !hr.Builds[0].Success || hr.Builds[0].Platforms != "win,linux" {
		t.Errorf("history = %+v", hr.Builds)
	}
}

func TestBuild_FailureEndsWithErrorEvent(t *testing.T) {
	_, h := newTestDaemon(t)
	dir := t.TempDir()

	rec := do(t, h, http.MethodPost, "/api/build", BuildRequest{ProjectPath: dir, Platforms: []string{"linux"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("build = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	var last build.Event
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatal(err)
	}
	if last.Type != build.EventError || !strings.Contains(last.Text, "package.json") {
		t.Errorf("last event = %+v", last)
	}
}

func TestBuild_RejectsBadRequests(t *testing.T) {
	d, h := newTestDaemon(t)
	dir := newProject(t, readyManifest)

	tests := []struct {
		name string
		req  BuildRequest
		want int
	}{
		{"no platforms", BuildRequest{ProjectPath: dir}, http.StatusBadRequest},
		{"unknown platform", BuildRequest{ProjectPath: dir, Platforms: []string{"amiga"}}, http.StatusBadRequest},
		{"no project", BuildRequest{Platforms: []string{"linux"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/build", tt.req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if err := d.acquire(dir); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer d.release(dir)
	rec := do(t, h, http.MethodPost, "/api/build", BuildRequest{ProjectPath: dir, Platforms: []string{"linux"}})
	if rec.Code != http.StatusConflict {
		t.Errorf("concurrent build = %d, want 409", rec.Code)
	}
}

func TestShutdown_WaitsForRunningBuilds(t *testing.T) {
	d, h := newTestDaemon(t)
	dir := newProject(t, readyManifest)

	if err := d.acquire(dir); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	go func() {
		time.Sleep(200 * time.Millisecond)
		d.release(dir)
	}()

	start := time.Now()
	d.shutdown()
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("shutdown returned after %v, before the build finished", elapsed)
	}

	if err := d.acquire(dir); !errors.Is(err, errShuttingDown) {
		t.Errorf("acquire after shutdown = %v, want errShuttingDown", err)
	}
	rec := do(t, h, http.MethodPost, "/api/build", BuildRequest{ProjectPath: dir, Platforms: []string{"linux"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("build after shutdown = %d, want 503", rec.Code)
	}
}

func TestHistory_BadLimit(t *testing.T) {
	_, h := newTestDaemon(t)
	if rec := do(t, h, http.MethodGet, "/api/history?limit=-1", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=-1 = %d, want 400", rec.Code)
	}
}
