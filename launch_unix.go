//go:build unix

package ion

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// tcsetpgrp assigns the controlling terminal (fd 0) to pgid (spec §4.6/§4.8,
// "tcsetpgrp(0, pgid)"). Failure is tolerated: a shell with no controlling
// terminal (piped into a script, run under CI) must still run pipelines.
func tcsetpgrp(pgid int) error {
	return unix.IoctlSetInt(0, unix.TIOCSPGRP, pgid)
}

// stdioOrDefault picks a job's attached fd, or the shell's own stream if the
// job has none attached (spec §4.3: "the job proceeds with its default
// stdin" when no redirection was bound).
func stdioOrDefault(attached, fallback *os.File) *os.File {
	if attached != nil {
		return attached
	}
	return fallback
}

// spawnExternal launches an External RefinedJob (spec §4.6 pipe-segment
// case and §4.8 single-job case share this implementation: the only
// difference the spec draws — "setpgid(0, pgid)" vs "setpgid(0, 0)" — is
// just "join an existing group" vs "become a new one", which is exactly
// what pgid==0 already means here).
func spawnExternal(job *RefinedJob, sh *Shell, pgid *int, foreground bool) (pid int, err error) {
	cmd := exec.Command(job.Command, job.Argv...)
	cmd.Stdin = stdioOrDefault(job.Stdin, sh.Stdin)
	cmd.Stdout = stdioOrDefault(job.Stdout, sh.Stdout)
	cmd.Stderr = stdioOrDefault(job.Stderr, sh.Stderr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: *pgid}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid = cmd.Process.Pid
	if *pgid == 0 {
		*pgid = pid
		if foreground {
			if err := tcsetpgrp(*pgid); err != nil {
				debugf("tcsetpgrp(%d): %v", *pgid, err)
			}
		}
	}
	sh.Foreground.Append(pid)
	// The Cmd value itself is discarded deliberately: the waiter reaps by
	// raw pid via Wait4, not through cmd.Wait (which would double-reap and
	// race with watchForeground's own Wait4 call on the same pid).
	go func() { _ = cmd.Process.Release() }()
	return pid, nil
}

// reexecBuiltinArg is the hidden cobra subcommand name (spec §C.5) used to
// run a builtin in a fresh process image, joined into the segment's
// process group, in place of a raw fork().
const reexecBuiltinArg = "__builtin_exec__"

// spawnBuiltinInPipe realizes spec §4.6's "fork; in the child ... run the
// builtin ... exit with the builtin's code" for a builtin that sits inside
// a multi-stage pipe segment. Go cannot safely fork() without exec() — the
// runtime's threads and GC do not survive a bare fork — so the child is a
// fresh process image of the same binary, re-invoked with a hidden
// subcommand that looks the builtin up in the very same registry and exits
// with its code (builtin_exec_unix.go's RunDetached).
func spawnBuiltinInPipe(job *RefinedJob, sh *Shell, pgid *int, foreground bool) (pid int, err error) {
	args := append([]string{reexecBuiltinArg, job.Command}, job.Argv...)
	cmd := exec.Command(os.Args[0], args...)
	cmd.Stdin = stdioOrDefault(job.Stdin, sh.Stdin)
	cmd.Stdout = stdioOrDefault(job.Stdout, sh.Stdout)
	cmd.Stderr = stdioOrDefault(job.Stderr, sh.Stderr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: *pgid}

	if err := cmd.Start(); err != nil {
		return 0, errors.New("ForkFail: " + err.Error())
	}
	pid = cmd.Process.Pid
	if *pgid == 0 {
		*pgid = pid
		if foreground {
			if err := tcsetpgrp(*pgid); err != nil {
				debugf("tcsetpgrp(%d): %v", *pgid, err)
			}
		}
	}
	sh.Foreground.Append(pid)
	go func() { _ = cmd.Process.Release() }()
	return pid, nil
}
