//go:build unix

package ion

import (
	"fmt"
	"os"
)

// makePipe creates an inter-process pipe. os.Pipe() already creates both
// ends close-on-exec (Go's runtime always opens pipes with O_CLOEXEC), so
// the child-side restoration the spec calls for happens naturally: exec.Cmd
// clears CLOEXEC on whichever fd it dup2's onto 0/1/2 for the child, and the
// parent's copy stays close-on-exec for every other child it spawns.
func makePipe() (r, w *os.File, err error) {
	r, w, err = os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("PipeCreate: %w", err)
	}
	return r, w, nil
}

// stdinFromBytes materializes an in-memory string as a readable fd (spec
// §4.1). The write is synchronous and blocks on the kernel pipe buffer, per
// spec §5's suspension-point list; callers only use this for here-strings,
// which are expected to be small enough to fit the pipe buffer in one shot.
func stdinFromBytes(buf []byte) (*os.File, error) {
	r, w, err := makePipe()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(buf); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("HereStringIO: %w", err)
	}
	if err := w.Close(); err != nil {
		r.Close()
		return nil, fmt.Errorf("HereStringIO: %w", err)
	}
	return r, nil
}
