//go:build unix

package ion

import (
	"os"
	"path/filepath"
	"testing"

	"ion/parser"
)

func TestOpenRedirectFileTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("stale content"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	f, err := openRedirectFile(path, dir, false)
	if err != nil {
		t.Fatalf("openRedirectFile: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("file content = %q, want truncated to empty", data)
	}
}

func TestOpenRedirectFileAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	f, err := openRedirectFile(path, dir, true)
	if err != nil {
		t.Fatalf("openRedirectFile: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("file content = %q, want appended", data)
	}
}

func TestOpenRedirectFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "out.txt")
	f, err := openRedirectFile(path, dir, false)
	if err != nil {
		t.Fatalf("openRedirectFile: %v", err)
	}
	f.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected parent dirs to be created: %v", err)
	}
}

func TestBindRedirectionsStdoutToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	p := &parser.Pipeline{
		Jobs: []parser.ParsedJob{
			{Command: "echo", Args: []string{"echo", "hi"}, Kind: parser.JobKind{Tag: parser.KindLast}},
		},
		Stdout: &parser.StdoutSpec{File: path, From: parser.FromStdout},
	}
	jobs := []RefinedJob{{Kind: RefinedExternal, Command: "echo", Argv: []string{"hi"}}}

	bindRedirections(p, jobs, dir)

	if jobs[0].Stdout == nil {
		t.Fatalf("Stdout not bound")
	}
	jobs[0].Stdout.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected redirect target to exist: %v", err)
	}
}

func TestBindRedirectionsHereString(t *testing.T) {
	p := &parser.Pipeline{
		Jobs: []parser.ParsedJob{
			{Command: "cat", Args: []string{"cat"}, Kind: parser.JobKind{Tag: parser.KindLast}},
		},
		Stdin: &parser.StdinSpec{Kind: parser.StdinHereString, Text: "hello"},
	}
	jobs := []RefinedJob{{Kind: RefinedExternal, Command: "cat"}}

	bindRedirections(p, jobs, "")

	if jobs[0].Stdin == nil {
		t.Fatalf("Stdin not bound from here-string")
	}
	buf := make([]byte, 16)
	n, _ := jobs[0].Stdin.Read(buf)
	if string(buf[:n]) != "hello\n" {
		t.Fatalf("here-string content = %q, want %q", buf[:n], "hello\n")
	}
}

func TestBindRedirectionsEmptyJobsIsNoop(t *testing.T) {
	p := &parser.Pipeline{Jobs: nil, Stdout: &parser.StdoutSpec{File: "/nonexistent/x"}}
	bindRedirections(p, nil, "")
}
