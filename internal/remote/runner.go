package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	kerrors "github.com/ethan-huo/env/internal/errors"
)

// timeoutExitCode is reported for processes killed by a deadline.
const timeoutExitCode = 124

// Output is the captured result of one process.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner starts external processes.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	// Timeout bounds each process. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Run starts name with args in dir and waits for it to exit.
// The returned error is only set when the process could not be started;
// a non-zero exit is reported through Output.ExitCode.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("starting %s: %w", name, err)
	}
	waitErr := cmd.Wait()

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.ExitCode = timeoutExitCode
		out.TimedOut = true
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ProcessState != nil {
			out.ExitCode = exitErr.ProcessState.ExitCode()
		} else {
			out.ExitCode = 1
		}
	case cmd.ProcessState != nil:
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	return out, nil
}

// CommandError describes a remote CLI invocation that exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	TimedOut bool
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if e.TimedOut {
		msg = e.Command + " timed out"
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLines(stderr, 5)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return kerrors.ErrRemoteCommand
}

// cli invokes one tool through a package runner such as "npx" or "pnpm exec".
type cli struct {
	runner Runner
	prefix []string
	dir    string
}

func newCLI(runner Runner, packageRunner, tool, dir string) cli {
	if runner == nil {
		runner = ExecRunner{}
	}
	prefix := strings.Fields(packageRunner)
	if len(prefix) == 0 {
		prefix = []string{"npx"}
	}
	return cli{runner: runner, prefix: append(prefix, tool), dir: dir}
}

// run executes the tool with args. The arg at index secret, if any, is
// masked in the command recorded on errors.
func (c cli) run(ctx context.Context, secret int, args ...string) (Output, error) {
	argv := append(append([]string{}, c.prefix[1:]...), args...)

	out, err := c.runner.Run(ctx, c.dir, c.prefix[0], argv...)
	if err != nil {
		return out, fmt.Errorf("%w: %w", kerrors.ErrRemoteCommand, err)
	}
	if out.ExitCode != 0 {
		return out, &CommandError{
			Command:  c.describe(secret, args),
			ExitCode: out.ExitCode,
			Stderr:   out.Stderr,
			TimedOut: out.TimedOut,
		}
	}
	return out, nil
}

func (c cli) describe(secret int, args []string) string {
	shown := append([]string{}, c.prefix...)
	for i, a := range args {
		if i == secret {
			a = "***"
		}
		shown = append(shown, a)
	}
	return strings.Join(shown, " ")
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
