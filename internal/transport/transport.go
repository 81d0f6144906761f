package transport

import (
	"context"
	"fmt"
	"strings"
)

type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Transport runs one shell command where the scheduler lives: on this host
// or over OpenSSH. lssrv is a one-shot reporter, so a failed run is terminal
// for the invocation; no retry policy is layered on top.
type Transport interface {
	Run(ctx context.Context, command string) (RunResult, error)
	Describe() string
}

type RunError struct {
	Command  string
	Target   string
	Stdout   string
	Stderr   string
	ExitCode int
	Timeout  bool
	Err      error
}

func (e *RunError) Error() string {
	base := fmt.Sprintf("command failed on %s", e.Target)
	if e.Timeout {
		base += " (timeout)"
	}
	if e.ExitCode != 0 {
		base += fmt.Sprintf(" [exit=%d]", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		base += ": " + s
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ShellQuote makes a string safe to embed in a bash -lc command line. The
// collector uses it for the queue state file path.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
