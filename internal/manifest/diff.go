package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/diff"
)

// WriteDiff writes a unified diff between the encoded forms of before and
// after. It reports whether the two differ.
func WriteDiff(ctx context.Context, w io.Writer, name string, before, after *Manifest, color bool) (bool, error) {
	a, err := Encode(before)
	if err != nil {
		return false, err
	}
	b, err := Encode(after)
	if err != nil {
		return false, err
	}
	if bytes.Equal(a, b) {
		return false, nil
	}

	opts := []diff.WriteOpt{diff.Names("a/"+name, "b/"+name)}
	if color {
		opts = append(opts, diff.TerminalColor())
	}
	pair := diff.Bytes(splitLines(a), splitLines(b))
	edit := diff.Myers(ctx, pair).WithContextSize(3)
	if _, err := edit.WriteUnified(w, pair, opts...); err != nil {
		return true, fmt.Errorf("write diff: %w", err)
	}
	return true, nil
}

func splitLines(b []byte) [][]byte {
	return bytes.Split(bytes.TrimSuffix(b, []byte("\n")), []byte("\n"))
}
