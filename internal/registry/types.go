package registry

import "time"

// Project is an Electron project shipyard has opened or created
type Project struct {
	ID           string    `yaml:"id" json:"id"`                                             // UUID v4
	Name         string    `yaml:"name" json:"name"`                                         // Display name, package.json name by default
	Path         string    `yaml:"path" json:"path"`                                         // Absolute path to the project directory
	RegisteredAt time.Time `yaml:"registered_at" json:"registered_at"`                       // When the project was registered
	LastOpenedAt time.Time `yaml:"last_opened_at,omitempty" json:"last_opened_at,omitempty"` // Last open, build or edit
}

// RegistryData holds all registered projects
type RegistryData struct {
	Projects map[string]*Project `yaml:"projects" json:"projects"` // Map of project ID to Project
}
