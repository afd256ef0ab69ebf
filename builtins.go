//go:build unix

package ion

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// builtinTable is the concrete Registry (spec §6's builtin registry
// contract: Contains(name) bool, Get(name) BuiltinFunc), ported from the
// teacher's package-level `builtins` map into a value so more than one
// Shell can exist in a test process without sharing state.
type builtinTable map[string]BuiltinFunc

func (t builtinTable) Contains(name string) bool { _, ok := t[name]; return ok }
func (t builtinTable) Get(name string) BuiltinFunc {
	fn, ok := t[name]
	if !ok {
		return nil
	}
	return fn
}

// defaultBuiltins wires up every builtin spec §C.2 names: cd, pwd, echo,
// exit, help, env, export, alias/unalias, history, jobs, fg, bg, kill, plus
// shift/pushd/popd for positional-parameter and directory-stack handling,
// grounded in the teacher's shift_builtin.go and its GlobalState dir stack.
func defaultBuiltins() Registry {
	return builtinTable{
		"cd":      biCd,
		"pwd":     biPwd,
		"echo":    biEcho,
		"exit":    biExit,
		"help":    biHelp,
		"env":     biEnv,
		"export":  biExport,
		"alias":   biAlias,
		"unalias": biUnalias,
		"history": biHistory,
		"jobs":    biJobs,
		"fg":      biFg,
		"bg":      biBg,
		"kill":    biKill,
		"shift":   biShift,
		"pushd":   biPushd,
		"popd":    biPopd,
	}
}

func biCd(argv []string, sh *Shell) int {
	target := os.Getenv("HOME")
	if len(argv) > 0 {
		target = argv[0]
	}
	if target == "-" {
		target = sh.PreviousDir()
	}
	if target == "" {
		diagf("cd: HOME not set")
		return FAILURE
	}
	if !strings.HasPrefix(target, "/") {
		target = sh.CWD() + "/" + target
	}
	if err := os.Chdir(target); err != nil {
		diagf("cd: %v", err)
		return FAILURE
	}
	abs, err := os.Getwd()
	if err != nil {
		abs = target
	}
	sh.SetCWD(abs)
	return SUCCESS
}

func biPwd(_ []string, sh *Shell) int {
	fmt.Fprintln(os.Stdout, sh.CWD())
	return SUCCESS
}

func biEcho(argv []string, _ *Shell) int {
	fmt.Fprintln(os.Stdout, strings.Join(argv, " "))
	return SUCCESS
}

func biExit(argv []string, sh *Shell) int {
	status := sh.LastExitStatus()
	if len(argv) > 0 {
		if n, err := strconv.Atoi(argv[0]); err == nil {
			status = n
		}
	}
	os.Exit(status)
	return status
}

func biHelp(_ []string, sh *Shell) int {
	fmt.Fprintln(os.Stdout, "ion builtin commands:")
	names := make([]string, 0)
	if table, ok := sh.Builtins.(builtinTable); ok {
		for name := range table {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %s\n", name)
	}
	return SUCCESS
}

func biEnv(_ []string, _ *Shell) int {
	for _, kv := range os.Environ() {
		fmt.Fprintln(os.Stdout, kv)
	}
	return SUCCESS
}

func biExport(argv []string, _ *Shell) int {
	if len(argv) == 0 {
		return biEnv(nil, nil)
	}
	parts := strings.SplitN(argv[0], "=", 2)
	if len(parts) != 2 {
		diagf("export: usage: export NAME=VALUE")
		return FAILURE
	}
	if err := os.Setenv(parts[0], parts[1]); err != nil {
		diagf("export: %v", err)
		return FAILURE
	}
	return SUCCESS
}

func biAlias(argv []string, sh *Shell) int {
	if len(argv) == 0 {
		for _, a := range sh.Aliases.List() {
			fmt.Fprintln(os.Stdout, a)
		}
		return SUCCESS
	}
	decl := strings.Join(argv, " ")
	parts := strings.SplitN(decl, "=", 2)
	if len(parts) != 2 {
		diagf("alias: usage: alias name='command'")
		return FAILURE
	}
	name := strings.TrimSpace(parts[0])
	command := strings.Trim(strings.TrimSpace(parts[1]), "'\"")
	sh.Aliases.Set(name, command)
	return SUCCESS
}

func biUnalias(argv []string, sh *Shell) int {
	if len(argv) == 0 {
		diagf("unalias: usage: unalias name")
		return FAILURE
	}
	sh.Aliases.Remove(argv[0])
	return SUCCESS
}

func biHistory(_ []string, sh *Shell) int {
	records, err := sh.History.Dump()
	if err != nil {
		diagf("history: %v", err)
		return FAILURE
	}
	for i, record := range records {
		fmt.Fprintf(os.Stdout, "%5d  %s\n", i+1, record)
	}
	return SUCCESS
}

func biJobs(_ []string, sh *Shell) int {
	for _, job := range sh.Jobs.List() {
		fmt.Fprintf(os.Stdout, "[%d] %d %s\n", job.ID, job.pgid(), job.Label)
	}
	return SUCCESS
}

func biFg(argv []string, sh *Shell) int {
	id, err := jobArg(argv)
	if err != nil {
		diagf("fg: %v", err)
		return FAILURE
	}
	job, ok := sh.Jobs.Get(id)
	if !ok {
		diagf("fg: no such job: %d", id)
		return FAILURE
	}
	pgid := job.pgid()
	if err := tcsetpgrp(pgid); err != nil {
		debugf("fg: tcsetpgrp(%d): %v", pgid, err)
	}
	sh.Foreground.SetPgid(pgid)
	status, err := sh.Jobs.Wait(id)
	if err := tcsetpgrp(sh.Pid()); err != nil {
		debugf("fg: tcsetpgrp(shell): %v", err)
	}
	if err != nil {
		diagf("fg: %v", err)
		return FAILURE
	}
	return status
}

func biBg(argv []string, sh *Shell) int {
	id, err := jobArg(argv)
	if err != nil {
		diagf("bg: %v", err)
		return FAILURE
	}
	if err := sh.Jobs.Signal(id, unix.SIGCONT); err != nil {
		diagf("bg: %v", err)
		return FAILURE
	}
	return SUCCESS
}

func biKill(argv []string, sh *Shell) int {
	if len(argv) == 0 {
		diagf("kill: usage: kill [-sig] job")
		return FAILURE
	}
	sig := unix.SIGTERM
	rest := argv
	if strings.HasPrefix(argv[0], "-") {
		n, err := strconv.Atoi(strings.TrimPrefix(argv[0], "-"))
		if err != nil {
			diagf("kill: invalid signal %q", argv[0])
			return FAILURE
		}
		sig = unix.Signal(n)
		rest = argv[1:]
	}
	id, err := jobArg(rest)
	if err != nil {
		diagf("kill: %v", err)
		return FAILURE
	}
	if err := sh.Jobs.Signal(id, sig); err != nil {
		diagf("kill: %v", err)
		return FAILURE
	}
	return SUCCESS
}

// biShift implements `shift [n]`: shift positional parameters left by n
// (default 1), per the teacher's shift_builtin.go.
func biShift(argv []string, sh *Shell) int {
	n := 1
	if len(argv) > 0 {
		var err error
		n, err = strconv.Atoi(argv[0])
		if err != nil {
			diagf("shift: %s: numeric argument required", argv[0])
			return FAILURE
		}
	}
	if err := sh.ShiftPositionalParams(n); err != nil {
		diagf("shift: %v", err)
		return FAILURE
	}
	return SUCCESS
}

// printDirStack prints the current directory followed by the pushd/popd
// stack, the line both biPushd and biPopd report on success.
func printDirStack(sh *Shell) {
	fmt.Fprintln(os.Stdout, strings.Join(append([]string{sh.CWD()}, sh.DirStack()...), " "))
}

// biPushd implements `pushd dir`: cd to dir and remember the previous
// directory on the stack, so a later `popd` can return to it.
func biPushd(argv []string, sh *Shell) int {
	if len(argv) == 0 {
		diagf("pushd: no other directory")
		return FAILURE
	}
	sh.PushDir(sh.CWD())
	if status := biCd(argv, sh); status != SUCCESS {
		sh.PopDir()
		return status
	}
	printDirStack(sh)
	return SUCCESS
}

// biPopd implements `popd`: cd back to the most recently pushed directory.
// The popped entry is only dropped once the cd actually succeeds, so a
// failed popd (e.g. the target was removed) leaves the stack intact for a
// retry instead of losing the entry.
func biPopd(_ []string, sh *Shell) int {
	stack := sh.DirStack()
	if len(stack) == 0 {
		diagf("popd: directory stack empty")
		return FAILURE
	}
	dir := stack[len(stack)-1]
	if status := biCd([]string{dir}, sh); status != SUCCESS {
		return status
	}
	sh.PopDir()
	printDirStack(sh)
	return SUCCESS
}

func jobArg(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("missing job id")
	}
	id, err := strconv.Atoi(strings.TrimPrefix(argv[0], "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", argv[0])
	}
	return id, nil
}
