package ion

import (
	"os"
	"strings"

	"ion/parser"
)

// RefinedKind distinguishes the two RefinedJob variants (spec §3, §9). A sum
// type plus exhaustive dispatch, not inheritance.
type RefinedKind int

const (
	RefinedExternal RefinedKind = iota
	RefinedBuiltin
)

// RefinedJob is a post-classification job carrying its attached stdio fds.
// Command/Argv follow spec §4.2 literally: Argv never repeats the command
// name, except for the implicit-cd rewrite, which folds the whole original
// argv in behind a synthetic "cd".
type RefinedJob struct {
	Kind    RefinedKind
	Command string
	Argv    []string
	Edge    parser.JobKind

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Short is the short label (command name) used in spawn diagnostics.
func (j *RefinedJob) Short() string { return j.Command }

// Long is the full command line, used as the waiter's segment label.
func (j *RefinedJob) Long() string {
	return strings.Join(append([]string{j.Command}, j.Argv...), " ")
}

// closeAttached closes whichever of Stdin/Stdout/Stderr were opened for this
// job specifically (as opposed to inherited from the shell), used once a
// builtin-in-pipe child has returned (spec §4.6).
func (j *RefinedJob) closeAttached(inherited map[*os.File]bool) {
	for _, f := range []*os.File{j.Stdin, j.Stdout, j.Stderr} {
		if f != nil && !inherited[f] {
			f.Close()
		}
	}
}

// Registry is the builtin registry's contract with the core (spec §6):
// contains(name) -> bool, get(name) -> (argv, shell) -> exit_code.
type Registry interface {
	Contains(name string) bool
	Get(name string) BuiltinFunc
}

// BuiltinFunc is a builtin's invokable signature (spec §3/§6). It runs with
// stdin/stdout/stderr already installed on fds 0/1/2 by the caller
// (builtin_exec_unix.go), so implementations simply use os.Stdin/Stdout/Stderr.
type BuiltinFunc func(argv []string, sh *Shell) int

// classify turns one parsed job into a RefinedJob, in the three-rule order
// spec §4.2 fixes. Rule 1 ("is_implicit_cd triggers on any argv[0] starting
// with '.'") also matches a literal program named ".foo" — the spec records
// this as an open question, not a bug to silently fix, so it is implemented
// exactly as written.
func classify(pj parser.ParsedJob, reg Registry) RefinedJob {
	argv0 := pj.Command
	if strings.HasPrefix(argv0, ".") || strings.HasPrefix(argv0, "/") || strings.HasSuffix(argv0, "/") {
		// Full original argv, unchanged, becomes the args to a synthetic cd.
		return RefinedJob{Kind: RefinedBuiltin, Command: "cd", Argv: pj.Args, Edge: pj.Kind}
	}
	if reg.Contains(pj.Command) {
		return RefinedJob{Kind: RefinedBuiltin, Command: pj.Command, Argv: pj.Args[1:], Edge: pj.Kind}
	}
	return RefinedJob{Kind: RefinedExternal, Command: pj.Command, Argv: pj.Args[1:], Edge: pj.Kind}
}

// classifyAll refines every job in a parsed pipeline, preserving order
// (spec §4.9 step 2).
func classifyAll(p *parser.Pipeline, reg Registry) []RefinedJob {
	out := make([]RefinedJob, len(p.Jobs))
	for i, pj := range p.Jobs {
		out[i] = classify(pj, reg)
	}
	return out
}
