package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gurisko/shipyard/internal/limits"
)

// ErrInvalidProfile indicates an imported profile has no manifest in it
var ErrInvalidProfile = errors.New("profile does not contain pkg")

// Profile is the export format for a manifest snapshot.
type Profile struct {
	Pkg *Manifest `json:"pkg"`
}

// ExportProfile writes m wrapped as {"pkg": ...}.
func ExportProfile(w io.Writer, m *Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Profile{Pkg: m.Clone()}); err != nil {
		return fmt.Errorf("failed to export profile: %w", err)
	}
	return nil
}

// ImportProfile reads a profile written by ExportProfile.
func ImportProfile(r io.Reader) (*Manifest, error) {
	var p Profile
	if err := json.NewDecoder(io.LimitReader(r, limits.Manifest)).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if p.Pkg == nil {
		return nil, ErrInvalidProfile
	}
	return p.Pkg, nil
}
