package sandbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/metrics"
)

// phaseFunc runs one toolchain command under ctx
type phaseFunc func(ctx context.Context, args []string) (CommandOutput, error)

// runToolchain applies the phase policy shared by all backends. Compiled
// toolchains get half the budget for each phase and stop after a failed
// compile; interpreted ones run once with the full budget.
func runToolchain(ctx context.Context, tc Toolchain, paths Paths, timeout time.Duration, run phaseFunc) (ExecuteResult, error) {
	start := time.Now()
	budget := timeout
	if tc.Compiled() {
		budget = timeout / 2

		out, err := runPhase(ctx, budget, tc.CompileArgs(paths), run)
		if err != nil {
			return ExecuteResult{}, err
		}
		if out.TimedOut {
			return timedOut(PhaseCompile, start), nil
		}
		if out.ExitCode != 0 {
			stderr := out.Stderr
			if stderr == "" {
				stderr = out.Stdout
			}
			return ExecuteResult{
				Stderr:   stderr,
				Phase:    PhaseCompile,
				ExitCode: out.ExitCode,
				Duration: time.Since(start),
			}, nil
		}
	}

	out, err := runPhase(ctx, budget, tc.RunArgs(paths), run)
	if err != nil {
		return ExecuteResult{}, err
	}
	if out.TimedOut {
		return timedOut(PhaseRun, start), nil
	}

	return ExecuteResult{
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Phase:    PhaseRun,
		ExitCode: out.ExitCode,
		Duration: time.Since(start),
	}, nil
}

func runPhase(ctx context.Context, budget time.Duration, args []string, run phaseFunc) (CommandOutput, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return run(phaseCtx, args)
}

// timedOut drops partial output; only the timeout marker is reported
func timedOut(phase Phase, start time.Time) ExecuteResult {
	return ExecuteResult{
		Stderr:   TimeoutMessage,
		Phase:    phase,
		TimedOut: true,
		ExitCode: TimeoutExitCode,
		Duration: time.Since(start),
	}
}

func requestTimeout(req ExecuteRequest, cfg *Config) time.Duration {
	if req.TimeoutSec > 0 {
		return time.Duration(req.TimeoutSec) * time.Second
	}
	return cfg.Timeout()
}

// observe records execution metrics and a summary log line
func observe(logger *zap.Logger, backend, language string, res ExecuteResult, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case res.TimedOut:
		outcome = metrics.OutcomeTimeout
	case res.Phase == PhaseCompile:
		outcome = metrics.OutcomeCompileError
	case res.ExitCode != 0:
		outcome = metrics.OutcomeRuntimeError
	}

	metrics.ExecutionsTotal.WithLabelValues(language, backend, outcome).Inc()
	if err == nil {
		metrics.ExecutionDuration.WithLabelValues(language, backend).Observe(res.Duration.Seconds())
	}

	logger.Info("Execution finished",
		zap.String("backend", backend),
		zap.String("language", language),
		zap.String("outcome", outcome),
		zap.String("phase", string(res.Phase)),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
		zap.Error(err),
	)
}
