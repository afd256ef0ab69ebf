package ion

import (
	"testing"

	"ion/parser"
)

type fakeRegistry map[string]BuiltinFunc

func (r fakeRegistry) Contains(name string) bool { _, ok := r[name]; return ok }
func (r fakeRegistry) Get(name string) BuiltinFunc {
	return r[name]
}

func TestClassifyExternal(t *testing.T) {
	reg := fakeRegistry{}
	pj := parser.ParsedJob{Command: "ls", Args: []string{"ls", "-la"}}
	rj := classify(pj, reg)
	if rj.Kind != RefinedExternal {
		t.Fatalf("Kind = %v, want RefinedExternal", rj.Kind)
	}
	if rj.Command != "ls" {
		t.Fatalf("Command = %q, want %q", rj.Command, "ls")
	}
	if len(rj.Argv) != 1 || rj.Argv[0] != "-la" {
		t.Fatalf("Argv = %v, want [-la] (argv0 must not repeat)", rj.Argv)
	}
}

func TestClassifyBuiltin(t *testing.T) {
	reg := fakeRegistry{"echo": func([]string, *Shell) int { return SUCCESS }}
	pj := parser.ParsedJob{Command: "echo", Args: []string{"echo", "hi"}}
	rj := classify(pj, reg)
	if rj.Kind != RefinedBuiltin {
		t.Fatalf("Kind = %v, want RefinedBuiltin", rj.Kind)
	}
	if len(rj.Argv) != 1 || rj.Argv[0] != "hi" {
		t.Fatalf("Argv = %v, want [hi]", rj.Argv)
	}
}

func TestClassifyImplicitCD(t *testing.T) {
	reg := fakeRegistry{}
	pj := parser.ParsedJob{Command: "..", Args: []string{".."}}
	rj := classify(pj, reg)
	if rj.Kind != RefinedBuiltin || rj.Command != "cd" {
		t.Fatalf("classify(\"..\") = %+v, want synthetic cd builtin", rj)
	}
	if len(rj.Argv) != 1 || rj.Argv[0] != ".." {
		t.Fatalf("Argv = %v, want the full original argv folded behind cd", rj.Argv)
	}
}

func TestClassifyDotPrefixedLiteralProgram(t *testing.T) {
	// Known, accepted quirk (spec open question #3): a literal program
	// named ".foo" also triggers the implicit-cd rewrite, since rule 1 is
	// a syntactic prefix check with no existence test.
	reg := fakeRegistry{}
	pj := parser.ParsedJob{Command: ".foo", Args: []string{".foo", "bar"}}
	rj := classify(pj, reg)
	if rj.Kind != RefinedBuiltin || rj.Command != "cd" {
		t.Fatalf("classify(\".foo\") = %+v, want synthetic cd builtin (accepted quirk)", rj)
	}
}

func TestClassifyAllPreservesOrder(t *testing.T) {
	reg := fakeRegistry{"echo": func([]string, *Shell) int { return SUCCESS }}
	p := &parser.Pipeline{Jobs: []parser.ParsedJob{
		{Command: "echo", Args: []string{"echo", "a"}, Kind: parser.JobKind{Tag: parser.KindPipe}},
		{Command: "cat", Args: []string{"cat"}, Kind: parser.JobKind{Tag: parser.KindLast}},
	}}
	out := classifyAll(p, reg)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Command != "echo" || out[1].Command != "cat" {
		t.Fatalf("classifyAll reordered jobs: %+v", out)
	}
}
