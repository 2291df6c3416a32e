//go:build unix

package daemon

import (
	"encoding/json"
	"net/http"
	"time"
)

func (d *Daemon) setupRoutes(mux *http.ServeMux) {
	// Health endpoint
	mux.HandleFunc("/health", d.handleHealth)

	// Project registry
	mux.HandleFunc("/api/projects", d.handleProjects)
	mux.HandleFunc("/api/projects/", d.handleProjectByID)

	// Manifest editing
	mux.HandleFunc("/api/manifest", d.handleManifest)
	mux.HandleFunc("/api/templates", d.handleTemplates)
	mux.HandleFunc("/api/platform", d.handlePlatform)

	// Builds
	mux.HandleFunc("/api/build", d.handleBuild)
	mux.HandleFunc("/api/history", d.handleHistory)
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(HealthResponse{
		Status: "ok",
		Uptime: time.Since(d.startTime).Seconds(),
	}); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
