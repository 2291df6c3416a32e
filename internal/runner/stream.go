package runner

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/gurisko/shipyard/internal/limits"
)

// Stream is a running command whose combined stdout and stderr is delivered
// as a finite sequence of chunks followed by exactly one Result.
//
// Chunks must be drained: the chunk channel is closed once the process has
// closed its output, and Wait returns only after that and after the process
// exited.
type Stream struct {
	chunks chan string
	done   chan struct{}
	result Result
	err    error
}

// Chunks yields output in arrival order.
func (s *Stream) Chunks() <-chan string { return s.chunks }

// Wait blocks until the process has exited and every chunk was delivered.
// It may be called any number of times and always returns the same values.
func (s *Stream) Wait() (Result, error) {
	<-s.done
	return s.result, s.err
}

// Drain feeds every chunk to fn and then returns the final result.
func (s *Stream) Drain(fn func(string)) (Result, error) {
	for chunk := range s.chunks {
		if fn != nil {
			fn(chunk)
		}
	}
	return s.Wait()
}

// Replay returns a Stream that delivers the given chunks and then result.
// It is meant for Runner stubs.
func Replay(result Result, err error, chunks ...string) *Stream {
	s := &Stream{chunks: make(chan string), done: make(chan struct{})}
	go func() {
		for _, c := range chunks {
			s.chunks <- c
		}
		close(s.chunks)
		s.result, s.err = result, err
		close(s.done)
	}()
	return s
}

// Stream starts the command with stdout and stderr bound to one pipe, so
// chunks keep the order in which the process wrote them.
func (r *ExecRunner) Stream(ctx context.Context, name string, args []string, opts Opts) (*Stream, error) {
	cmd := r.command(ctx, name, args, opts)

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunch, name, err)
	}
	// The child holds its own copy; ours must go so the reader sees EOF.
	pw.Close()

	// A descendant that left the process group can keep the pipe open past
	// cancellation; stop reading once the grace period is over.
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(waitDelay, func() { pr.Close() })
	})

	s := &Stream{chunks: make(chan string), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer stop()

		buf := make([]byte, limits.OutputChunk)
		held := 0
		for {
			n, rerr := pr.Read(buf[held:])
			n += held
			cut := n
			if rerr == nil {
				cut = runeBoundary(buf[:n])
			}
			if cut > 0 {
				s.chunks <- string(buf[:cut])
			}
			held = copy(buf, buf[cut:n])
			if rerr != nil {
				break
			}
		}
		close(s.chunks)
		pr.Close()

		s.result, s.err = exitResult(ctx, cmd.Wait())
	}()
	return s, nil
}

// runeBoundary returns the length of the longest prefix of b that does not
// end in the middle of a UTF-8 sequence.
func runeBoundary(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
