// Package ui defines the dialogs shipyard needs from whatever front-end
// drives it, plus line-based terminal implementations.
//
// A picker that the user cancels returns ok == false and a nil error.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive indicates a prompt was needed but stdin is not a terminal
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes)")

// FileFilter restricts a file picker to some extensions, given without the
// leading dot.
type FileFilter struct {
	Name       string
	Extensions []string
}

// ImageFilters are the icon formats electron-builder accepts.
var ImageFilters = []FileFilter{{Name: "Images", Extensions: []string{"png", "ico", "icns"}}}

type FolderPicker interface {
	PickFolder(prompt string) (path string, ok bool, err error)
}

type FilePicker interface {
	PickFile(prompt string, filters []FileFilter) (path string, ok bool, err error)
}

type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Terminal prompts on Out and reads answers line by line from In.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	// AssumeYes answers every confirmation with yes without prompting.
	AssumeYes bool
	// Interactive allows prompting. NewTerminal sets it from isatty.
	Interactive bool

	reader *bufio.Reader
}

// NewTerminal returns a Terminal on stdin/stdout.
func NewTerminal(assumeYes bool) *Terminal {
	fd := os.Stdin.Fd()
	return &Terminal{
		In:          os.Stdin,
		Out:         os.Stdout,
		AssumeYes:   assumeYes,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (t *Terminal) readLine(prompt string) (string, error) {
	if !t.Interactive {
		return "", ErrNotInteractive
	}
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	fmt.Fprint(t.Out, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (t *Terminal) Confirm(question string) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	answer, err := t.readLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// PickFolder reads a directory path. An empty answer cancels.
func (t *Terminal) PickFolder(prompt string) (string, bool, error) {
	answer, err := t.readLine(prompt + ": ")
	if err != nil || answer == "" {
		return "", false, err
	}
	abs, err := filepath.Abs(expandHome(answer))
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false, fmt.Errorf("cannot use %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", false, fmt.Errorf("%s is not a directory", abs)
	}
	return abs, true, nil
}

// PickFile reads a file path that must match one of filters. An empty answer
// cancels.
func (t *Terminal) PickFile(prompt string, filters []FileFilter) (string, bool, error) {
	answer, err := t.readLine(prompt + describe(filters) + ": ")
	if err != nil || answer == "" {
		return "", false, err
	}
	abs, err := filepath.Abs(expandHome(answer))
	if err != nil {
		return "", false, err
	}
	if !Matches(abs, filters) {
		return "", false, fmt.Errorf("%s is not one of%s", filepath.Base(abs), describe(filters))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false, fmt.Errorf("cannot use %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%s is a directory", abs)
	}
	return abs, true, nil
}

// Matches reports whether path has an extension allowed by filters. No
// filters allow everything.
func Matches(path string, filters []FileFilter) bool {
	if len(filters) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range filters {
		if slices.Contains(f.Extensions, ext) || slices.Contains(f.Extensions, "*") {
			return true
		}
	}
	return false
}

func describe(filters []FileFilter) string {
	var exts []string
	for _, f := range filters {
		for _, e := range f.Extensions {
			exts = append(exts, "."+e)
		}
	}
	if len(exts) == 0 {
		return ""
	}
	return " (" + strings.Join(exts, ", ") + ")"
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
