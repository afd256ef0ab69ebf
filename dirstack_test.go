package ion

import "testing"

func TestPushPopDir(t *testing.T) {
	sh := &Shell{}
	sh.PushDir("/a")
	sh.PushDir("/b")

	if got := sh.DirStack(); len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Fatalf("DirStack() = %v, want [/a /b]", got)
	}
	if got := sh.PopDir(); got != "/b" {
		t.Fatalf("PopDir() = %q, want /b", got)
	}
	if got := sh.PopDir(); got != "/a" {
		t.Fatalf("PopDir() = %q, want /a", got)
	}
	if got := sh.PopDir(); got != "" {
		t.Fatalf("PopDir() on empty stack = %q, want empty", got)
	}
}

func TestPositionalParams(t *testing.T) {
	sh := &Shell{}
	sh.SetPositionalParams([]string{"one", "two", "three"})

	if n := sh.PositionalParamCount(); n != 3 {
		t.Fatalf("PositionalParamCount() = %d, want 3", n)
	}
	if p := sh.PositionalParam(1); p != "one" {
		t.Fatalf("PositionalParam(1) = %q, want one", p)
	}
	if p := sh.PositionalParam(0); p != "" {
		t.Fatalf("PositionalParam(0) = %q, want empty (1-indexed)", p)
	}
	if p := sh.PositionalParam(99); p != "" {
		t.Fatalf("PositionalParam(99) = %q, want empty (out of range)", p)
	}
}

func TestShiftPositionalParams(t *testing.T) {
	sh := &Shell{}
	sh.SetPositionalParams([]string{"a", "b", "c"})

	if err := sh.ShiftPositionalParams(1); err != nil {
		t.Fatalf("ShiftPositionalParams(1): %v", err)
	}
	if n := sh.PositionalParamCount(); n != 2 {
		t.Fatalf("PositionalParamCount() after shift = %d, want 2", n)
	}
	if p := sh.PositionalParam(1); p != "b" {
		t.Fatalf("PositionalParam(1) after shift = %q, want b", p)
	}

	if err := sh.ShiftPositionalParams(10); err != nil {
		t.Fatalf("ShiftPositionalParams(10): %v", err)
	}
	if n := sh.PositionalParamCount(); n != 0 {
		t.Fatalf("PositionalParamCount() after over-shift = %d, want 0", n)
	}

	if err := sh.ShiftPositionalParams(-1); err == nil {
		t.Fatalf("ShiftPositionalParams(-1) did not error")
	}
}
