package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gurisko/shipyard/internal/limits"
)

// Filename is the manifest file inside a project directory.
const Filename = "package.json"

var (
	// ErrManifestMissing indicates the project has no package.json
	ErrManifestMissing = errors.New("package.json not found")
	// ErrManifestTooLarge indicates package.json exceeds limits.Manifest
	ErrManifestTooLarge = errors.New("package.json too large")
)

// Path returns the manifest path for a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, Filename)
}

// Decode parses a manifest document.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", Filename, err)
	}
	return &m, nil
}

// Encode renders m with two-space indentation and a trailing newline.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Clone()); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", Filename, err)
	}
	return buf.Bytes(), nil
}

// ReadFile loads the manifest of projectDir as-is.
func ReadFile(projectDir string) (*Manifest, error) {
	data, err := readCapped(Path(projectDir))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limits.Manifest+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > limits.Manifest {
		return nil, fmt.Errorf("%w: %s", ErrManifestTooLarge, path)
	}
	return data, nil
}

// WriteFile replaces the manifest of projectDir atomically.
func WriteFile(projectDir string, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	return writeAtomic(Path(projectDir), data, 0o644)
}

// Open reads the manifest, reconciles it, and writes it back only when a
// fix was applied.
func (p Policy) Open(projectDir string) (*Manifest, []Fix, error) {
	m, err := ReadFile(projectDir)
	if err != nil {
		return nil, nil, err
	}
	fixed, fixes := p.Reconcile(m)
	if len(fixes) > 0 {
		if err := WriteFile(projectDir, fixed); err != nil {
			return nil, nil, err
		}
	}
	return fixed, fixes, nil
}

// Save reconciles m and writes the result.
func (p Policy) Save(projectDir string, m *Manifest) (*Manifest, error) {
	fixed, _ := p.Reconcile(m)
	if err := WriteFile(projectDir, fixed); err != nil {
		return nil, err
	}
	return fixed, nil
}

// EnsureBuildToolingFile runs EnsureBuildTooling against the file on disk and
// persists the result when it changed.
func (p Policy) EnsureBuildToolingFile(projectDir string) (bool, error) {
	m, err := ReadFile(projectDir)
	if err != nil {
		return false, err
	}
	out, modified := p.EnsureBuildTooling(m)
	if !modified {
		return false, nil
	}
	if err := WriteFile(projectDir, out); err != nil {
		return false, err
	}
	return true, nil
}

// Open applies DefaultPolicy.
func Open(projectDir string) (*Manifest, []Fix, error) {
	return DefaultPolicy.Open(projectDir)
}

// Save applies DefaultPolicy.
func Save(projectDir string, m *Manifest) (*Manifest, error) {
	return DefaultPolicy.Save(projectDir, m)
}

// writeAtomic writes via a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".package-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}
