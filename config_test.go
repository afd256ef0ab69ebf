package ion

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigRootedAtHome(t *testing.T) {
	home := os.Getenv("HOME")
	cfg := Default()
	want := filepath.Join(home, ".ion_history")
	if cfg.HistoryFile != want {
		t.Fatalf("HistoryFile = %q, want %q", cfg.HistoryFile, want)
	}
	if cfg.HistoryLimit != 1000 {
		t.Fatalf("HistoryLimit = %d, want 1000", cfg.HistoryLimit)
	}
}

func TestLoadConfigFallsBackWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := LoadConfig()
	if cfg.HistoryLimit != 1000 {
		t.Fatalf("HistoryLimit = %d, want default 1000 when no .ionrc exists", cfg.HistoryLimit)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("ION_PRINT_COMMANDS", "true")

	cfg := LoadConfig()
	if !cfg.PrintCommands {
		t.Fatalf("PrintCommands = false, want true via ION_PRINT_COMMANDS override")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	content := "history_limit: 42\ndebug: true\n"
	if err := os.WriteFile(filepath.Join(dir, ".ionrc"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := LoadConfig()
	if cfg.HistoryLimit != 42 {
		t.Fatalf("HistoryLimit = %d, want 42 from .ionrc", cfg.HistoryLimit)
	}
	if !cfg.Debug {
		t.Fatalf("Debug = false, want true from .ionrc")
	}
}
