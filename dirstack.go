package ion

import "fmt"

// dirState is the `pushd`/`popd`-style directory stack and the positional
// parameter vector, generalized from the teacher's GlobalState singleton
// (global_state.go) into a field owned by Shell. The teacher kept this as
// a package-level once.Do singleton; the core's shell-as-shared-context
// rule (spec §9) rules that out here — there is exactly one Shell per
// process already, so a second global for the same data would just be two
// sources of truth for $PWD.
type dirState struct {
	stack  []string
	params []string
}

// PushDir pushes dir onto the directory stack (pushd). The caller is
// responsible for actually chdir'ing; this only tracks the history.
func (sh *Shell) PushDir(dir string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.dirs.stack = append(sh.dirs.stack, dir)
}

// PopDir pops and returns the most recently pushed directory, or "" if the
// stack holds nothing to pop (PopDir on an empty stack changes nothing; the
// popd builtin reports that case as a failure before calling it).
func (sh *Shell) PopDir() string {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	n := len(sh.dirs.stack)
	if n == 0 {
		return ""
	}
	dir := sh.dirs.stack[n-1]
	sh.dirs.stack = sh.dirs.stack[:n-1]
	return dir
}

// DirStack returns a copy of the pushd/popd stack, oldest first.
func (sh *Shell) DirStack() []string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	out := make([]string, len(sh.dirs.stack))
	copy(out, sh.dirs.stack)
	return out
}

// SetPositionalParams installs $1.. for script/function argument passing.
func (sh *Shell) SetPositionalParams(params []string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.dirs.params = append([]string(nil), params...)
}

// PositionalParam returns $n (1-indexed), or "" if out of range.
func (sh *Shell) PositionalParam(n int) string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if n < 1 || n > len(sh.dirs.params) {
		return ""
	}
	return sh.dirs.params[n-1]
}

// PositionalParamCount is $#.
func (sh *Shell) PositionalParamCount() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.dirs.params)
}

// ShiftPositionalParams implements the `shift` builtin's semantics: shift
// n (default 1) params off the front. Shifting past the end just empties
// the vector, matching bash rather than erroring.
func (sh *Shell) ShiftPositionalParams(n int) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if n < 0 {
		return fmt.Errorf("shift: invalid count: %d", n)
	}
	if n > len(sh.dirs.params) {
		sh.dirs.params = nil
		return nil
	}
	sh.dirs.params = sh.dirs.params[n:]
	return nil
}
