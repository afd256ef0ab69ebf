package ion

import (
	"fmt"
	"log"
	"os"
)

// debugEnabled mirrors the teacher's unconditional log.Printf calls, but gated:
// normal interactive use of ion stays as quiet as a real shell. Enabled by
// ION_DEBUG=1 or config key "debug".
var debugEnabled = os.Getenv("ION_DEBUG") != ""

func init() {
	log.SetFlags(0)
	log.SetPrefix("")
}

// SetDebug toggles internal tracing; cmd/ion's REPL start-up calls it with
// the loaded config's Debug value.
func SetDebug(v bool) { debugEnabled = v }

func debugf(format string, args ...any) {
	if debugEnabled {
		log.Printf("ion(debug): "+format, args...)
	}
}

// diagf prints a user-visible diagnostic line, per spec §6: every
// user-visible error is prefixed "ion: " and written to stderr.
func diagf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ion: "+format+"\n", args...)
}
