//go:build unix

package ion

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// ignoreSIGTTOU is the scoped handler spec §4.9/§9/C.6 requires: acquired on
// entry, released on every exit path via the returned restorer. While it is
// live the shell can freely call tcsetpgrp without being stopped by the
// kernel for writing to a terminal it no longer owns.
func ignoreSIGTTOU() (restore func()) {
	signal.Ignore(unix.SIGTTOU)
	return func() { signal.Reset(unix.SIGTTOU) }
}

// There is no child-side signal-unblock hook in this package: spec
// §4.6/§4.8 call for the child to "unblock all shell-managed signals" just
// before exec, and Go's
// runtime already does this unconditionally for every os/exec child
// (forkAndExecInChild resets the signal mask before execve), so there is no
// blocked mask for a pre-exec hook to clear here — the contract is
// satisfied by the platform runtime rather than by shell code.
