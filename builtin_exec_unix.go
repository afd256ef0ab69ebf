//go:build unix

package ion

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// backupStdio duplicates fds 0/1/2 so they can be restored later. Spec §4.8:
// "if any backup step fails, close any already-duped backups ... return
// FAILURE."
func backupStdio() (backups [3]int, err error) {
	for fd := 0; fd < 3; fd++ {
		dup, derr := unix.Dup(fd)
		if derr != nil {
			for _, b := range backups[:fd] {
				unix.Close(b)
			}
			return backups, fmt.Errorf("DupFail: %w", derr)
		}
		backups[fd] = dup
	}
	return backups, nil
}

// restoreStdio installs the backed-up fds back onto 0/1/2. Spec §4.1's
// install(): a failure here is logged and non-fatal — the process may end
// up with a closed or wrong stream, but the shell keeps running.
func restoreStdio(backups [3]int) {
	for fd := 0; fd < 3; fd++ {
		if err := unix.Dup2(backups[fd], fd); err != nil {
			diagf("install: restoring fd %d: %v", fd, err)
		}
		unix.Close(backups[fd])
	}
}

// installStdio dup2's job's attached streams onto 0/1/2, leaving any
// not-attached stream untouched (still whatever backupStdio captured).
func installStdio(job *RefinedJob) {
	install := func(f *os.File, target int) {
		if f == nil {
			return
		}
		if err := unix.Dup2(int(f.Fd()), target); err != nil {
			diagf("install: fd %d: %v", target, err)
		}
	}
	install(job.Stdin, 0)
	install(job.Stdout, 1)
	install(job.Stderr, 2)
}

// runBuiltinInParent is the single-job builtin execute path (spec §4.8):
// back up 0/1/2, install the job's stdio, invoke the builtin, restore on
// every exit path. Spec invariant 5: fds 0/1/2 after return are
// byte-identical to their values before the call.
func runBuiltinInParent(job *RefinedJob, reg Registry, sh *Shell) int {
	backups, err := backupStdio()
	if err != nil {
		diagf("%v", err)
		return FAILURE
	}
	defer restoreStdio(backups)

	installStdio(job)
	fn := reg.Get(job.Command)
	if fn == nil {
		// Precondition violation: the classifier must have already verified
		// contains(name). This is a programming error, not a runtime one.
		panic("ion: builtin executor invoked with unregistered name " + job.Command)
	}
	return fn(job.Argv, sh)
}

// RunDetached is the entry point for the re-exec'd child process spawned by
// spawnBuiltinInPipe (spec §4.6/§C.5): the child's fds 0/1/2 already are the
// segment's pre-attached pipe stages (exec.Cmd's Stdin/Stdout/Stderr wiring
// did that at process creation), so there is nothing to back up or
// restore — the whole process exits right after, the Go-idiomatic
// realization of "exit with the builtin's code".
func RunDetached(name string, argv []string, reg Registry, sh *Shell) int {
	fn := reg.Get(name)
	if fn == nil {
		panic("ion: builtin executor invoked with unregistered name " + name)
	}
	return fn(argv, sh)
}
