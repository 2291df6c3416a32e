//go:build unix

package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/history"
	"github.com/gurisko/shipyard/internal/limits"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/platform"
	"github.com/gurisko/shipyard/internal/registry"
)

type BuildRequest struct {
	ProjectPath string   `json:"project_path"`
	Platforms   []string `json:"platforms"`
}

type HistoryResponse struct {
	Builds []history.Record `json:"builds"`
}

var (
	errBuildRunning = errors.New("a build is already running for this project")
	errShuttingDown = errors.New("daemon is shutting down")
)

// acquire marks dir as building.
func (d *Daemon) acquire(dir string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		return errShuttingDown
	}
	if d.building[dir] {
		return errBuildRunning
	}
	d.building[dir] = true
	d.inflight.Add(1)
	return nil
}

func (d *Daemon) release(dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.building, dir)
	d.inflight.Done()
}

// handleBuild runs a build and streams its events as NDJSON, one
// build.Event per line. Once the stream has started the status is 200;
// a failed run ends with an error event.
func (d *Daemon) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req BuildRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.JSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(platforms) == 0 {
		writeError(w, build.ErrNoPlatforms.Error(), http.StatusBadRequest)
		return
	}

	dir, ok := d.resolveProject(w, req.ProjectPath)
	if !ok {
		return
	}
	if err := d.acquire(dir); err != nil {
		status := http.StatusConflict
		if errors.Is(err, errShuttingDown) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, err.Error(), status)
		return
	}
	defer d.release(dir)
	d.remember(dir)

	// Packaging takes far longer than the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logx.Debugf("daemon: cannot clear write deadline: %v", err)
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(e build.Event) {
		if err := enc.Encode(e); err != nil {
			logx.Debugf("daemon: build stream write failed: %v", err)
			return
		}
		_ = rc.Flush()
	}

	logx.Infof("daemon: building %s for %v", dir, platforms)
	err = d.builder.Run(r.Context(), build.Request{ProjectDir: dir, Platforms: platforms}, build.EventFunc(send))
	if err != nil {
		logx.Infof("daemon: build of %s failed: %v", dir, err)
		send(build.Event{Type: build.EventError, Text: err.Error()})
	}
}

func (d *Daemon) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if d.history == nil {
		writeError(w, "build history unavailable", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	// History outlives the project directory, so a missing one is fine.
	dir := q.Get("project_path")
	if dir != "" {
		if canon, err := registry.CanonicalPath(dir); err == nil {
			dir = canon
		} else if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}

	builds, err := d.history.List(r.Context(), dir, limit)
	if err != nil {
		writeError(w, fmt.Sprintf("failed to list builds: %v", err), http.StatusInternalServerError)
		return
	}
	if builds == nil {
		builds = []history.Record{}
	}
	writeJSON(w, HistoryResponse{Builds: builds}, http.StatusOK)
}
