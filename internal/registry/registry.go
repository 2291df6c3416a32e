package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrProjectNotFound indicates the project ID or path isn't registered
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectAlreadyExists indicates the path is already registered
	ErrProjectAlreadyExists = errors.New("project already exists")
	// ErrInvalidPath indicates the path doesn't exist or is not accessible
	ErrInvalidPath = errors.New("invalid path")
)

// Registry manages the list of known projects. The file is shared between
// the CLI and the daemon, so every mutation re-reads it first.
type Registry struct {
	filePath string
	data     *RegistryData
	mu       sync.RWMutex
	now      func() time.Time
}

// New creates a new Registry instance
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		data: &RegistryData{
			Projects: make(map[string]*Project),
		},
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := r.Load(); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	return r, nil
}

// Load reads the registry from disk
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadNoLock()
}

func (r *Registry) loadNoLock() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			r.data = &RegistryData{Projects: make(map[string]*Project)}
			return nil
		}
		return err
	}

	var registryData RegistryData
	if err := yaml.Unmarshal(data, &registryData); err != nil {
		return fmt.Errorf("failed to unmarshal registry: %w", err)
	}

	// Initialize map if nil
	if registryData.Projects == nil {
		registryData.Projects = make(map[string]*Project)
	}

	r.data = &registryData
	return nil
}

// saveNoLock persists registry without locking (caller must hold lock)
func (r *Registry) saveNoLock() error {
	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(r.data)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	// Write to temp file for atomic replacement
	f, err := os.CreateTemp(dir, ".projects-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close registry file: %w", err)
	}

	if err := os.Rename(tmp, r.filePath); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}

	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}

	return nil
}

// CanonicalPath makes path absolute, resolves symlinks and checks that it
// is an existing directory.
func CanonicalPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: path=%s: %v", ErrInvalidPath, path, err)
	}
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("%w: path=%s: %v", ErrInvalidPath, absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: path=%s: not a directory", ErrInvalidPath, absPath)
	}
	return absPath, nil
}

func (r *Registry) findNoLock(absPath string) *Project {
	for _, p := range r.data.Projects {
		if p.Path == absPath {
			return p
		}
	}
	return nil
}

// RegisterAndSave atomically registers and persists.
// On save failure, the in-memory change is rolled back.
func (r *Registry) RegisterAndSave(project *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	absPath, err := CanonicalPath(project.Path)
	if err != nil {
		return err
	}
	if err := r.loadNoLock(); err != nil {
		return fmt.Errorf("failed to reload registry: %w", err)
	}
	if r.findNoLock(absPath) != nil {
		return ErrProjectAlreadyExists
	}

	project.Path = absPath
	if project.Name == "" {
		project.Name = filepath.Base(absPath)
	}
	if project.RegisteredAt.IsZero() {
		project.RegisteredAt = r.now()
	}
	if project.ID == "" {
		project.ID = GenerateProjectID()
	}

	r.data.Projects[project.ID] = project

	if err := r.saveNoLock(); err != nil {
		delete(r.data.Projects, project.ID)
		return fmt.Errorf("persist failed: %w", err)
	}
	return nil
}

// Remember records that the project at path was just used, registering it
// under name when it is new. An existing entry keeps its name unless it has
// none.
func (r *Registry) Remember(path, name string) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	absPath, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}
	if err := r.loadNoLock(); err != nil {
		return nil, fmt.Errorf("failed to reload registry: %w", err)
	}

	now := r.now()
	p := r.findNoLock(absPath)
	if p == nil {
		if name == "" {
			name = filepath.Base(absPath)
		}
		p = &Project{ID: GenerateProjectID(), Name: name, Path: absPath, RegisteredAt: now}
		r.data.Projects[p.ID] = p
	} else if p.Name == "" {
		p.Name = name
	}
	p.LastOpenedAt = now

	if err := r.saveNoLock(); err != nil {
		return nil, fmt.Errorf("persist failed: %w", err)
	}
	cp := *p
	return &cp, nil
}

// UnregisterAndSave atomically removes and persists.
// On save failure, the removal is rolled back.
func (r *Registry) UnregisterAndSave(projectID string) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadNoLock(); err != nil {
		return nil, fmt.Errorf("failed to reload registry: %w", err)
	}
	proj, ok := r.data.Projects[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}

	delete(r.data.Projects, projectID)

	if err := r.saveNoLock(); err != nil {
		r.data.Projects[projectID] = proj
		return nil, fmt.Errorf("persist failed: %w", err)
	}
	return proj, nil
}

// Resolve finds a project by ID or by path.
func (r *Registry) Resolve(ref string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.data.Projects[ref]; ok {
		cp := *p
		return &cp, nil
	}
	// A project whose directory is gone can still be named by its old path.
	absPath, err := CanonicalPath(ref)
	if err != nil {
		absPath, _ = filepath.Abs(ref)
	}
	if p := r.findNoLock(absPath); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, ref)
}

// List returns all registered projects, most recently used first, then by
// name and ID
func (r *Registry) List() []*Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*Project, 0, len(r.data.Projects))
	for _, p := range r.data.Projects {
		cp := *p
		projects = append(projects, &cp)
	}

	sort.Slice(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if !a.LastOpenedAt.Equal(b.LastOpenedAt) {
			return a.LastOpenedAt.After(b.LastOpenedAt)
		}
		if a.Name == b.Name {
			return a.ID < b.ID
		}
		return a.Name < b.Name
	})

	return projects
}
