package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// HasDevDependency reports whether package.json in projectDir declares pkg
// under devDependencies. It reads the raw document, so a manifest the typed
// model would reject still answers; an unreadable or invalid file answers
// false.
func HasDevDependency(projectDir, pkg string) bool {
	data, err := os.ReadFile(Path(projectDir))
	if err != nil || !gjson.ValidBytes(data) {
		return false
	}
	res := gjson.GetBytes(data, "devDependencies."+escapePath(pkg))
	return res.Exists() && res.Type != gjson.Null
}

// Installed reports whether pkg is present in the project's node_modules
// tree. Only existence is checked, not the installed version.
func Installed(projectDir, pkg string) bool {
	_, err := os.Stat(filepath.Join(projectDir, "node_modules", filepath.FromSlash(pkg)))
	return err == nil
}

// Exists returns an ErrManifestMissing error when projectDir has no
// package.json.
func Exists(projectDir string) error {
	path := Path(projectDir)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}
