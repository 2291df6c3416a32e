//go:build unix

package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gurisko/shipyard/internal/limits"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/platform"
	"github.com/gurisko/shipyard/internal/registry"
)

type ManifestResponse struct {
	ProjectPath string             `json:"project_path"`
	Manifest    *manifest.Manifest `json:"manifest"`
	Fixes       []manifest.Fix     `json:"fixes,omitempty"`
}

type TemplatesResponse struct {
	Templates []manifest.Template `json:"templates"`
}

type PlatformResponse struct {
	Host    platform.Platform   `json:"host"`
	Targets []platform.Platform `json:"targets"`
}

// resolveProject turns a project ID or directory into a canonical project
// directory. Errors are written to w.
func (d *Daemon) resolveProject(w http.ResponseWriter, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		writeError(w, "project_path is required", http.StatusBadRequest)
		return "", false
	}
	if registry.IsProjectID(ref) {
		if err := d.registry.Load(); err != nil {
			writeError(w, fmt.Sprintf("failed to load registry: %v", err), http.StatusInternalServerError)
			return "", false
		}
		p, err := d.registry.Resolve(ref)
		if err != nil {
			writeError(w, "project not found", http.StatusNotFound)
			return "", false
		}
		ref = p.Path
	}
	dir, err := registry.CanonicalPath(ref)
	if err != nil {
		writeError(w, fmt.Sprintf("invalid path: %v", err), http.StatusBadRequest)
		return "", false
	}
	return dir, true
}

// remember marks dir as recently used. Failure only costs ordering.
func (d *Daemon) remember(dir string) {
	if _, err := d.registry.Remember(dir, ""); err != nil {
		logx.Warnf("daemon: failed to remember %s: %v", dir, err)
	}
}

func (d *Daemon) handleManifest(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		d.handleOpenManifest(w, r)
	case http.MethodPut:
		d.handleSaveManifest(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Daemon) handleOpenManifest(w http.ResponseWriter, r *http.Request) {
	dir, ok := d.resolveProject(w, r.URL.Query().Get("project_path"))
	if !ok {
		return
	}

	m, fixes, err := d.policy.Open(dir)
	if err != nil {
		writeManifestError(w, err)
		return
	}
	d.remember(dir)

	writeJSON(w, ManifestResponse{ProjectPath: dir, Manifest: m, Fixes: fixes}, http.StatusOK)
}

func (d *Daemon) handleSaveManifest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	dir, ok := d.resolveProject(w, r.URL.Query().Get("project_path"))
	if !ok {
		return
	}

	var m manifest.Manifest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.Manifest)).Decode(&m); err != nil {
		writeError(w, "invalid manifest JSON", http.StatusBadRequest)
		return
	}

	saved, err := d.policy.Save(dir, &m)
	if err != nil {
		writeManifestError(w, err)
		return
	}
	d.remember(dir)

	writeJSON(w, ManifestResponse{ProjectPath: dir, Manifest: saved}, http.StatusOK)
}

func writeManifestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manifest.ErrManifestMissing):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, manifest.ErrManifestTooLarge):
		writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		writeError(w, fmt.Sprintf("manifest: %v", err), http.StatusUnprocessableEntity)
	}
}

func (d *Daemon) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, err := manifest.LoadTemplates(d.templatesDir)
	if err != nil {
		writeError(w, fmt.Sprintf("failed to load templates: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, TemplatesResponse{Templates: manifest.Catalog(user)}, http.StatusOK)
}

func (d *Daemon) handlePlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, PlatformResponse{Host: d.host, Targets: platform.AvailableTargets(d.host)}, http.StatusOK)
}
