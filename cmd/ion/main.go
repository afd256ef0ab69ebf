// Command ion is the interactive shell built on the pipeline execution
// core in the parent package. main.go wires cobra for argument parsing
// (teacher go.mod declares spf13/cobra; aledsdavies-opal's cli/main.go is
// the grounding for the root-command shape), chzyer/readline for the
// interactive loop (Pur1st2EpicONE-Ebash's internal/ebash/ebash.go Run()),
// and a hidden subcommand that lets the launcher re-exec this same binary
// to run one builtin in a fresh process image in place of a raw fork()
// (spec §4.6/§C.5).
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"ion"
	"ion/parser"
)

func main() {
	var commandFlag string

	root := &cobra.Command{
		Use:   "ion",
		Short: "ion is a POSIX-flavored pipeline shell",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if commandFlag != "" {
				os.Exit(runOnce(commandFlag, args))
			}
			runREPL(args)
			return nil
		},
	}
	root.Flags().StringVarP(&commandFlag, "command", "c", "", "execute a single pipeline and exit")
	root.AddCommand(builtinExecCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ion: %v\n", err)
		os.Exit(1)
	}
}

// builtinExecCmd is the hidden __builtin_exec__ subcommand spec §4.6/§C.5
// requires: the launcher re-execs this binary with this subcommand and the
// builtin's name/argv when a builtin sits inside a multi-stage pipe
// segment, since Go cannot safely fork() without exec(). Its own stdio is
// already the segment's pre-attached pipe stage (wired via exec.Cmd before
// this process even started), so it looks the name up in the shared
// registry and exits with the builtin's code — nothing else to do.
func builtinExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "__builtin_exec__ NAME [ARGS...]",
		Hidden: true,
		Args:   cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sh := ion.NewShell(ion.LoadConfig())
			os.Exit(ion.RunDetached(args[0], args[1:], sh.Builtins, sh))
		},
	}
}

func runOnce(line string, positional []string) int {
	sh := ion.NewShell(ion.LoadConfig())
	sh.SetPositionalParams(positional)
	return execLine(sh, line)
}

// runREPL is the interactive read-eval loop, grounded in
// Pur1st2EpicONE-Ebash's Shell.Run(): a readline terminal for history and
// line editing, alias expansion before parsing, and the session-start log
// line the teacher's cmd/main.go prints unconditionally. Trailing args on
// the ion invocation itself become $1.. for the session, the same as a
// POSIX shell invoked with script arguments.
func runREPL(positional []string) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.Printf("ion session started at %s by %s", time.Now().Format(time.RFC3339), os.Getenv("USER"))

	cfg := ion.LoadConfig()
	sh := ion.NewShell(cfg)
	sh.SetPositionalParams(positional)
	ion.SetDebug(cfg.Debug)
	defer sh.History.Close()

	term, err := readline.NewEx(&readline.Config{
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    cfg.HistoryLimit,
		InterruptPrompt: cfg.InterruptPrompt,
		EOFPrompt:       "\n" + cfg.EOFPrompt,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ion: failed to start terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Close()

	for {
		term.SetPrompt(sh.Prompt())
		line, err := term.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(os.Stderr, "ion: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		execLine(sh, line)
	}
}

// execLine expands aliases, parses one line into a Pipeline, runs it, and
// records it to history — the non-interactive unit shared by runOnce and
// runREPL.
func execLine(sh *ion.Shell, line string) int {
	expanded := sh.Aliases.Expand(line)
	p, err := parser.Parse(expanded)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ion: %v\n", err)
		sh.SetLastExitStatus(ion.FAILURE)
		return ion.FAILURE
	}

	status := ion.RunPipeline(sh, p)
	if err := sh.History.Insert(p.String(), status); err != nil {
		log.Printf("history: %v", err)
	}
	return status
}
