package ion

import (
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/term"
)

// Shell is the single owning reference threaded through every call the
// pipeline execution core makes (spec §9, "Shell as shared mutable
// context"). It generalizes the teacher's package-level GlobalState
// singleton into a per-instance value: the spec models one shell process
// with no concurrency on this state beyond what the core itself documents
// (the background pipeline goroutine forkPipe starts, which is why the
// fields sit behind mu and JobManager has its own lock), so a
// global was never required and made the core untestable in isolation.
type Shell struct {
	mu sync.RWMutex

	cwd               string
	previousDir       string
	pid               int
	lastExitStatus    int
	lastBackgroundPID int
	printComms        bool
	hasTTY            bool
	dirs              dirState

	Foreground *ForegroundRoster
	Jobs       *JobManager
	Builtins   Registry
	Aliases    *AliasTable
	History    *HistoryManager
	Session    *Session
	Config     *Config

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// NewShell builds a Shell rooted at the process's actual cwd/pid and wires
// the ambient collaborators (job manager, history, session) the way the
// teacher's boot() sequence does.
func NewShell(cfg *Config) *Shell {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = os.Getenv("HOME")
		if cwd == "" {
			cwd = "/"
		}
	}
	prevDir := os.Getenv("OLDPWD")
	if prevDir == "" {
		prevDir = filepath.Dir(cwd)
	}
	os.Setenv("PWD", cwd)

	hist, err := NewHistoryManager(cfg.HistoryDBPath)
	if err != nil {
		diagf("history: %v", err)
	}

	sh := &Shell{
		cwd:         cwd,
		previousDir: prevDir,
		pid:         os.Getpid(),
		printComms:  cfg.PrintCommands,
		hasTTY:      term.IsTerminal(int(os.Stdin.Fd())),
		Foreground:  &ForegroundRoster{},
		Jobs:        NewJobManager(),
		Builtins:    defaultBuiltins(),
		Aliases:     NewAliasTable(),
		History:     hist,
		Session:     NewSession(),
		Config:      cfg,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
	return sh
}

func (sh *Shell) CWD() string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.cwd
}

// SetCWD updates the shell's notion of the working directory, mirroring
// $PWD/$OLDPWD the way the teacher's UpdateCWD does.
func (sh *Shell) SetCWD(dir string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.cwd != dir {
		sh.previousDir = sh.cwd
	}
	sh.cwd = dir
	os.Setenv("OLDPWD", sh.previousDir)
	os.Setenv("PWD", sh.cwd)
}

func (sh *Shell) PreviousDir() string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.previousDir
}

func (sh *Shell) Pid() int {
	return sh.pid
}

func (sh *Shell) LastExitStatus() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.lastExitStatus
}

func (sh *Shell) SetLastExitStatus(status int) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.lastExitStatus = status
}

func (sh *Shell) LastBackgroundPID() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.lastBackgroundPID
}

func (sh *Shell) SetLastBackgroundPID(pid int) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.lastBackgroundPID = pid
}

// HasTTY reports whether stdin is a controlling terminal, decided once at
// boot via golang.org/x/term (teacher go.mod declares this dependency but
// never imports it). RunPipeline uses it only to decide whether to reclaim
// the terminal for the shell once a foreground driver run finishes — a
// shell piped into a script or run under CI has no terminal to reclaim. It
// does not decide whether a pipeline is driven as foreground, and the
// launcher's own tcsetpgrp calls are not gated by it.
func (sh *Shell) HasTTY() bool {
	return sh.hasTTY
}

func (sh *Shell) PrintComms() bool {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.printComms
}
