//go:build unix

package ion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ion/parser"

	"golang.org/x/sys/unix"
)

// openRedirectFile opens a destination for stdout/stderr redirection,
// truncating by default or appending when append is set, creating parent
// directories the way the teacher's PrepareFileForRedirection does.
func openRedirectFile(path string, cwd string, append bool) (*os.File, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0o644)
}

// bindRedirections applies the pipeline-level stdin/stdout redirections
// (spec §4.3) to the first and last refined job respectively, regardless of
// internal segment boundaries. Every failure here is non-fatal: the binder
// logs to stderr and leaves the affected job with its default (inherited)
// stream, exactly per spec §7's RedirOpen/HereStringIO/TryCloneFail policy.
func bindRedirections(p *parser.Pipeline, jobs []RefinedJob, cwd string) {
	if len(jobs) == 0 {
		return
	}

	if p.Stdin != nil {
		switch p.Stdin.Kind {
		case parser.StdinFile:
			f, err := os.Open(p.Stdin.Path)
			if err != nil {
				diagf("RedirOpen: %v", err)
			} else {
				jobs[0].Stdin = f
			}
		case parser.StdinHereString:
			text := p.Stdin.Text
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			f, err := stdinFromBytes([]byte(text))
			if err != nil {
				diagf("%v", err)
			} else {
				jobs[0].Stdin = f
			}
		}
	}

	if p.Stdout != nil {
		last := len(jobs) - 1
		f, err := openRedirectFile(p.Stdout.File, cwd, p.Stdout.Append)
		if err != nil {
			diagf("RedirOpen: %v", err)
			return
		}
		switch p.Stdout.From {
		case parser.FromStdout:
			jobs[last].Stdout = f
		case parser.FromStderr:
			jobs[last].Stderr = f
		case parser.FromBoth:
			dupFd, err := unix.Dup(int(f.Fd()))
			if err != nil {
				diagf("TryCloneFail: %v", err)
				f.Close()
				return
			}
			jobs[last].Stdout = f
			jobs[last].Stderr = os.NewFile(uintptr(dupFd), f.Name())
		default:
			panic(fmt.Sprintf("redirect: unreachable RedirectFrom %d", p.Stdout.From))
		}
	}
}
