package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
)

// templateFrontmatter is the header of a user template file:
//
//	---
//	key: tray-app
//	preset:
//	  productName: Tray App
//	  build:
//	    appId: com.example.tray
//	    linux: { target: deb }
//	---
//	Free-form notes shown by `shipyard template list`.
type templateFrontmatter struct {
	Key     string         `yaml:"key"`
	Summary string         `yaml:"summary"`
	Preset  map[string]any `yaml:"preset"`
}

// LoadTemplates reads every *.md file in dir as a user template. A missing
// directory yields no templates.
func LoadTemplates(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	var out []Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		t, err := LoadTemplate(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// LoadTemplate parses one template file. The key defaults to the file name
// without extension and the summary to the first non-empty body line.
func LoadTemplate(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	var fm templateFrontmatter
	body, err := frontmatter.Parse(f, &fm)
	if err != nil {
		return Template{}, fmt.Errorf("failed to parse template %s: %w", path, err)
	}

	key := strings.TrimSpace(fm.Key)
	if key == "" {
		key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	summary := strings.TrimSpace(fm.Summary)
	if summary == "" {
		summary = firstLine(string(body))
	}
	if len(fm.Preset) == 0 {
		return Template{}, fmt.Errorf("template %s: preset is empty", path)
	}

	raw, err := json.Marshal(normalizeYAML(fm.Preset))
	if err != nil {
		return Template{}, fmt.Errorf("template %s: %w", path, err)
	}
	preset, err := Decode(raw)
	if err != nil {
		return Template{}, fmt.Errorf("template %s: %w", path, err)
	}
	return Template{Key: key, Summary: summary, Preset: preset}, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// normalizeYAML converts map[any]any nodes, which some YAML decoders
// produce, into map[string]any so the value can be re-encoded as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
