//go:build unix

package ion

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBiCdAbsoluteAndDash(t *testing.T) {
	sh := newTestShell(t)
	start := sh.CWD()

	tmp := t.TempDir()
	if status := biCd([]string{tmp}, sh); status != SUCCESS {
		t.Fatalf("biCd(%q) = %d, want SUCCESS", tmp, status)
	}
	resolved, _ := filepath.EvalSymlinks(tmp)
	gotResolved, _ := filepath.EvalSymlinks(sh.CWD())
	if gotResolved != resolved {
		t.Fatalf("CWD() = %q, want %q", sh.CWD(), tmp)
	}

	if status := biCd([]string{"-"}, sh); status != SUCCESS {
		t.Fatalf("biCd(-) = %d, want SUCCESS", status)
	}
	startResolved, _ := filepath.EvalSymlinks(start)
	backResolved, _ := filepath.EvalSymlinks(sh.CWD())
	if backResolved != startResolved {
		t.Fatalf("CWD() after cd - = %q, want %q", sh.CWD(), start)
	}
}

func TestBiCdNonexistentDir(t *testing.T) {
	sh := newTestShell(t)
	if status := biCd([]string{"/no/such/directory/at/all"}, sh); status != FAILURE {
		t.Fatalf("biCd(nonexistent) = %d, want FAILURE", status)
	}
}

func TestBiAliasRoundTrip(t *testing.T) {
	sh := newTestShell(t)
	if status := biAlias([]string{"ll=ls", "-la"}, sh); status != SUCCESS {
		t.Fatalf("biAlias(set) = %d, want SUCCESS", status)
	}
	cmd, ok := sh.Aliases.Get("ll")
	if !ok || cmd != "ls -la" {
		t.Fatalf("Aliases.Get(ll) = (%q, %v), want (%q, true)", cmd, ok, "ls -la")
	}

	if status := biUnalias([]string{"ll"}, sh); status != SUCCESS {
		t.Fatalf("biUnalias = %d, want SUCCESS", status)
	}
	if _, ok := sh.Aliases.Get("ll"); ok {
		t.Fatalf("alias ll still present after unalias")
	}
}

func TestBiExportRequiresEquals(t *testing.T) {
	sh := newTestShell(t)
	if status := biExport([]string{"NOEQUALS"}, sh); status != FAILURE {
		t.Fatalf("biExport(malformed) = %d, want FAILURE", status)
	}
	if status := biExport([]string{"ION_TEST_VAR=1"}, sh); status != SUCCESS {
		t.Fatalf("biExport(valid) = %d, want SUCCESS", status)
	}
	if os.Getenv("ION_TEST_VAR") != "1" {
		t.Fatalf("ION_TEST_VAR not set in environment after export")
	}
}

func TestJobArgParsing(t *testing.T) {
	cases := []struct {
		in      []string
		want    int
		wantErr bool
	}{
		{[]string{"%3"}, 3, false},
		{[]string{"3"}, 3, false},
		{[]string{}, 0, true},
		{[]string{"abc"}, 0, true},
	}
	for _, c := range cases {
		got, err := jobArg(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("jobArg(%v) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("jobArg(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestBiShiftDefaultAndCount(t *testing.T) {
	sh := newTestShell(t)
	sh.SetPositionalParams([]string{"a", "b", "c"})

	if status := biShift(nil, sh); status != SUCCESS {
		t.Fatalf("biShift() = %d, want SUCCESS", status)
	}
	if n := sh.PositionalParamCount(); n != 2 {
		t.Fatalf("PositionalParamCount() after shift = %d, want 2", n)
	}
	if p := sh.PositionalParam(1); p != "b" {
		t.Fatalf("PositionalParam(1) after shift = %q, want b", p)
	}

	if status := biShift([]string{"2"}, sh); status != SUCCESS {
		t.Fatalf("biShift(2) = %d, want SUCCESS", status)
	}
	if n := sh.PositionalParamCount(); n != 0 {
		t.Fatalf("PositionalParamCount() after shift 2 = %d, want 0", n)
	}

	if status := biShift([]string{"notanumber"}, sh); status != FAILURE {
		t.Fatalf("biShift(notanumber) = %d, want FAILURE", status)
	}
}

func TestBiPushdPopdRoundTrip(t *testing.T) {
	sh := newTestShell(t)
	start := sh.CWD()
	tmp := t.TempDir()

	out := captureStdout(t, sh, func() {
		if status := biPushd([]string{tmp}, sh); status != SUCCESS {
			t.Fatalf("biPushd(%q) = %d, want SUCCESS", tmp, status)
		}
	})
	if out == "" {
		t.Fatalf("biPushd produced no output")
	}
	resolved, _ := filepath.EvalSymlinks(tmp)
	gotResolved, _ := filepath.EvalSymlinks(sh.CWD())
	if gotResolved != resolved {
		t.Fatalf("CWD() after pushd = %q, want %q", sh.CWD(), tmp)
	}
	if len(sh.DirStack()) != 1 {
		t.Fatalf("DirStack() after pushd = %v, want len 1", sh.DirStack())
	}

	captureStdout(t, sh, func() {
		if status := biPopd(nil, sh); status != SUCCESS {
			t.Fatalf("biPopd() = %d, want SUCCESS", status)
		}
	})
	startResolved, _ := filepath.EvalSymlinks(start)
	backResolved, _ := filepath.EvalSymlinks(sh.CWD())
	if backResolved != startResolved {
		t.Fatalf("CWD() after popd = %q, want %q", sh.CWD(), start)
	}
	if len(sh.DirStack()) != 0 {
		t.Fatalf("DirStack() after popd = %v, want empty", sh.DirStack())
	}
}

func TestBiPopdEmptyStackFails(t *testing.T) {
	sh := newTestShell(t)
	if status := biPopd(nil, sh); status != FAILURE {
		t.Fatalf("biPopd(empty stack) = %d, want FAILURE", status)
	}
}

func TestBiJobsListsBackgroundJob(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("timing-sensitive, skipped in CI")
	}
	sh := newTestShell(t)
	out := captureStdout(t, sh, func() {
		RunPipeline(sh, parseOrFatal(t, "sleep 1 &"))
		biJobs(nil, sh)
	})
	if out == "" {
		t.Fatalf("biJobs produced no output for a running background job")
	}
}
