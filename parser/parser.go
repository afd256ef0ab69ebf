// Package parser turns a line of shell input into a Pipeline: an ordered
// list of jobs joined by pipe, conditional, and background operators, plus
// at most one pipeline-level stdin source and stdout sink. It is the
// external collaborator the pipeline execution core consumes — it does not
// know anything about process groups, fds, or builtins.
package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var shellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "DQString", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "SQString", Pattern: `'[^']*'`},
	// Longest-prefix operators must precede their shorter prefixes: "<<<"
	// before "<", "||"/"|&"/"|^" before "|", "&&"/"&>>"/"&>" before "&",
	// "^>>" before "^>", ">>" before ">".
	{Name: "Op", Pattern: `<<<|\|\||\|&|\|\^|&&|&>>|&>|\^>>|\^>|>>|>|<|\||&`},
	{Name: "Word", Pattern: `[^\s"'|&<>^]+`},
})

// line is the raw grammar: a flat stream of words/strings/operators, in the
// same spirit as the teacher's SimpleCommand.Parts — structure is imposed
// afterwards by buildPipeline, not by the grammar itself.
type line struct {
	Tokens []string `parser:"@(Op|DQString|SQString|Word)+"`
}

var lineParser = participle.MustBuild[line](
	participle.Lexer(shellLexer),
	participle.Elide("Whitespace"),
)

// RedirectFrom is the three-way source selector for a pipe segment or an
// output redirection: which of the producer's streams feeds the consumer.
type RedirectFrom int

const (
	FromStdout RedirectFrom = iota
	FromStderr
	FromBoth
)

func (f RedirectFrom) pipeSymbol() string {
	switch f {
	case FromStderr:
		return "|^"
	case FromBoth:
		return "|&"
	default:
		return "|"
	}
}

func (f RedirectFrom) redirSymbol(append bool) string {
	switch f {
	case FromStderr:
		if append {
			return "^>>"
		}
		return "^>"
	case FromBoth:
		if append {
			return "&>>"
		}
		return "&>"
	default:
		if append {
			return ">>"
		}
		return ">"
	}
}

// JobKindTag is the operator edge leaving a job.
type JobKindTag int

const (
	KindPipe JobKindTag = iota
	KindAnd
	KindOr
	KindBackground
	KindLast
)

// JobKind describes the edge leaving a job towards its successor. From is
// only meaningful when Tag == KindPipe.
type JobKind struct {
	Tag  JobKindTag
	From RedirectFrom
}

// ParsedJob is one command invocation with its argv; Args[0] == Command.
type ParsedJob struct {
	Command string
	Args    []string
	Kind    JobKind
}

// StdinKind selects how a pipeline's stdin is supplied.
type StdinKind int

const (
	StdinNone StdinKind = iota
	StdinFile
	StdinHereString
)

// StdinSpec is the pipeline-level stdin source, attached to the first job.
type StdinSpec struct {
	Kind StdinKind
	Path string // StdinFile
	Text string // StdinHereString
}

// StdoutSpec is the pipeline-level stdout/stderr sink, attached to the last
// job.
type StdoutSpec struct {
	File   string
	Append bool
	From   RedirectFrom
}

// Pipeline is the parser's output: a non-empty ordered sequence of jobs plus
// optional pipeline-level redirections.
type Pipeline struct {
	Jobs   []ParsedJob
	Stdin  *StdinSpec
	Stdout *StdoutSpec
}

// Parse parses one line of input into a Pipeline. An empty or
// whitespace-only line is rejected — the caller is expected to have already
// filtered those out, matching the "empty pipeline must not be reachable"
// boundary the execution core relies on.
func Parse(input string) (*Pipeline, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("parser: empty input")
	}
	l, err := lineParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	return buildPipeline(l.Tokens)
}

func isOperator(tok string) bool {
	switch tok {
	case "|", "|^", "|&", "&&", "||", "&":
		return true
	default:
		return false
	}
}

func operatorKind(tok string) JobKind {
	switch tok {
	case "|":
		return JobKind{Tag: KindPipe, From: FromStdout}
	case "|^":
		return JobKind{Tag: KindPipe, From: FromStderr}
	case "|&":
		return JobKind{Tag: KindPipe, From: FromBoth}
	case "&&":
		return JobKind{Tag: KindAnd}
	case "||":
		return JobKind{Tag: KindOr}
	case "&":
		return JobKind{Tag: KindBackground}
	default:
		panic("parser: operatorKind: unreachable token " + tok)
	}
}

// buildPipeline walks the flat token stream, peeling off pipeline-level
// redirections wherever they appear and splitting the remainder into jobs
// at operator boundaries.
func buildPipeline(tokens []string) (*Pipeline, error) {
	var stdin *StdinSpec
	var stdout *StdoutSpec
	var jobs []ParsedJob
	var words []string

	closeJob := func(kind JobKind) error {
		if len(words) == 0 {
			return fmt.Errorf("parser: missing command before operator")
		}
		jobs = append(jobs, ParsedJob{Command: words[0], Args: words, Kind: kind})
		words = nil
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "<" || tok == "<<<":
			i++
			if i >= len(tokens) {
				return nil, fmt.Errorf("parser: %q requires an argument", tok)
			}
			operand := unquote(tokens[i])
			if tok == "<<<" {
				stdin = &StdinSpec{Kind: StdinHereString, Text: operand}
			} else {
				stdin = &StdinSpec{Kind: StdinFile, Path: operand}
			}
		case tok == ">" || tok == ">>" || tok == "^>" || tok == "^>>" || tok == "&>" || tok == "&>>":
			i++
			if i >= len(tokens) {
				return nil, fmt.Errorf("parser: %q requires an argument", tok)
			}
			from := FromStdout
			if strings.HasPrefix(tok, "^") {
				from = FromStderr
			} else if strings.HasPrefix(tok, "&") {
				from = FromBoth
			}
			stdout = &StdoutSpec{
				File:   unquote(tokens[i]),
				Append: strings.HasSuffix(tok, ">>"),
				From:   from,
			}
		case isOperator(tok):
			kind := operatorKind(tok)
			if err := closeJob(kind); err != nil {
				return nil, err
			}
			if kind.Tag == KindBackground && i != len(tokens)-1 {
				return nil, fmt.Errorf("parser: background operator '&' must terminate the pipeline")
			}
		default:
			words = append(words, unquote(tok))
		}
	}

	if len(words) > 0 {
		jobs = append(jobs, ParsedJob{Command: words[0], Args: words, Kind: JobKind{Tag: KindLast}})
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("parser: empty pipeline")
	}

	return &Pipeline{Jobs: jobs, Stdin: stdin, Stdout: stdout}, nil
}

// unquote strips a single layer of matching quotes from a lexed word,
// resolving backslash escapes inside double quotes. Single-quoted text is
// taken verbatim, per POSIX.
func unquote(tok string) string {
	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		return tok[1 : len(tok)-1]
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		inner := tok[1 : len(tok)-1]
		var b strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) {
				switch inner[i+1] {
				case '"', '\\', '$':
					b.WriteByte(inner[i+1])
					i++
					continue
				}
			}
			b.WriteByte(inner[i])
		}
		return b.String()
	}
	return tok
}

// String renders the pipeline in its canonical pretty form: the form used
// for background-job labels, the "> <command>" echo of PRINT_COMMS, and
// diagnostics. Arguments, paths and here-string text are written without
// quotes, so re-parsing it yields the same job sequence only when none of
// them contains whitespace, quotes or operator characters.
func (p *Pipeline) String() string {
	var b strings.Builder
	for i, j := range p.Jobs {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.Join(j.Args, " "))
		switch j.Kind.Tag {
		case KindPipe:
			b.WriteString(" " + j.Kind.From.pipeSymbol())
		case KindAnd:
			b.WriteString(" &&")
		case KindOr:
			b.WriteString(" ||")
		case KindBackground:
			b.WriteString(" &")
		}
	}
	if p.Stdin != nil {
		switch p.Stdin.Kind {
		case StdinFile:
			b.WriteString(" < " + p.Stdin.Path)
		case StdinHereString:
			b.WriteString(" <<< " + p.Stdin.Text)
		}
	}
	if p.Stdout != nil {
		b.WriteString(" " + p.Stdout.From.redirSymbol(p.Stdout.Append) + " " + p.Stdout.File)
	}
	return b.String()
}

// Last reports the terminal job's kind, the one piece of the pipeline the
// execution core inspects before deciding between the driver and the
// background-forker.
func (p *Pipeline) Last() JobKind {
	return p.Jobs[len(p.Jobs)-1].Kind
}
