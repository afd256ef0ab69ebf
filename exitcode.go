//go:build unix

package ion

import "golang.org/x/sys/unix"

// Exit code conventions produced by the pipeline execution core (spec §6).
// TERMINATED has no single value: a signal-killed child is reported as
// 128+signal, the same convention ion's prior releases and every POSIX
// shell use, so scripts that test `$? -gt 128` keep working.
const (
	SUCCESS       = 0
	FAILURE       = 1
	NoSuchCommand = 127
)

// Terminated encodes a signal-killed exit status.
func Terminated(sig unix.Signal) int {
	return 128 + int(sig)
}

// IsTerminated reports whether status lies in Terminated's 128+signal range
// (129 through 191). An ordinary exit code in that range reads the same.
func IsTerminated(status int) bool {
	return status > 128 && status < 128+64
}
