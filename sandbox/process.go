package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// killGrace bounds how long Wait may block on pipes held open by
// descendants once the leader exited or the group was killed
const killGrace = 500 * time.Millisecond

// RealCommandRunner implements CommandRunner with host processes. Each
// command runs in its own process group, and the whole group is killed when
// ctx ends or the leader exits.
type RealCommandRunner struct{}

// RunCommand executes cmd and captures its output
func (RealCommandRunner) RunCommand(ctx context.Context, cmd Command) (CommandOutput, error) {
	if len(cmd.Args) < 1 {
		return CommandOutput{}, fmt.Errorf("no command provided")
	}

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...) //nolint:gosec // running user code is the purpose
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.WaitDelay = killGrace
	setProcessGroup(c)

	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	err := c.Run()
	killProcessGroup(c)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return CommandOutput{
			Stdout:   stdoutBuf.String(),
			Stderr:   stderrBuf.String(),
			ExitCode: TimeoutExitCode,
			TimedOut: true,
		}, nil
	}

	exitCode := 0
	var exitError *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitError):
		exitCode = exitError.ExitCode()
	case errors.Is(err, exec.ErrWaitDelay):
		// A descendant kept the output pipes open after the leader exited
		exitCode = c.ProcessState.ExitCode()
	default:
		return CommandOutput{}, fmt.Errorf("failed to execute %s: %w", cmd.Args[0], err)
	}

	return CommandOutput{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
	}, nil
}
