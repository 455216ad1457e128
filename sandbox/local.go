package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalExecutor implements SandboxExecutor with host processes. Isolation is
// limited to a private workspace and process group per execution.
type LocalExecutor struct {
	logger    *zap.Logger
	config    *Config
	registry  *Registry
	cmdRunner CommandRunner
	fs        FileSystem
}

// LocalExecutorOption defines a functional option for LocalExecutor
type LocalExecutorOption func(*LocalExecutor)

// WithLocalCommandRunner sets the CommandRunner for LocalExecutor
func WithLocalCommandRunner(cmdRunner CommandRunner) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.cmdRunner = cmdRunner
	}
}

// WithLocalFileSystem sets the FileSystem for LocalExecutor
func WithLocalFileSystem(fs FileSystem) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.fs = fs
	}
}

// NewLocalExecutor creates a new LocalExecutor with default implementations and optional interfaces
func NewLocalExecutor(logger *zap.Logger, config *Config, registry *Registry, opts ...LocalExecutorOption) *LocalExecutor {
	executor := &LocalExecutor{
		logger:    logger,
		config:    config,
		registry:  registry,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the code on the host
func (l *LocalExecutor) Execute(ctx context.Context, req ExecuteRequest) (result ExecuteResult, err error) {
	tc, err := l.registry.Resolve(req.Language)
	if err != nil {
		return ExecuteResult{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return ExecuteResult{}, ErrEmptyCode
	}

	defer func() {
		observe(l.logger, "local", tc.Language, result, err)
	}()

	ws, err := NewWorkspace(l.fs, tc, req.Code, l.logger)
	if err != nil {
		return ExecuteResult{}, err
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil {
			l.logger.Error("Failed to remove workspace", zap.String("path", ws.Root), zap.Error(closeErr))
		}
	}()

	paths := ws.Paths()
	l.logger.Debug("Executing code locally",
		zap.String("language", tc.Language),
		zap.String("workspace", ws.Root))

	return runToolchain(ctx, tc, paths, requestTimeout(req, l.config), func(ctx context.Context, args []string) (CommandOutput, error) {
		out, err := l.cmdRunner.RunCommand(ctx, Command{
			Args: args,
			Dir:  filepath.Dir(paths.Source),
			Env:  tc.Env,
		})
		if err != nil {
			return CommandOutput{}, fmt.Errorf("failed to run %s toolchain: %w", tc.Language, err)
		}
		return out, nil
	})
}
