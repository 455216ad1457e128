package sandbox

import (
	"context"
	"errors"
	"os"
	"time"
)

// Phase identifies the toolchain step that produced a result
type Phase string

// Execution phases
const (
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// TimeoutMessage is reported on stderr when a phase exceeds its budget
const TimeoutMessage = "Execution timed out"

// TimeoutExitCode mirrors the exit status of timeout(1)
const TimeoutExitCode = 124

// ExecuteRequest represents the parameters for code execution
type ExecuteRequest struct {
	Language string
	Code     string
	// TimeoutSec overrides the configured budget when positive
	TimeoutSec int
}

// ExecuteResult represents the result of code execution. A compile failure
// or a timeout is a result, not an error.
type ExecuteResult struct {
	Stdout   string
	Stderr   string
	Phase    Phase
	TimedOut bool
	ExitCode int
	Duration time.Duration
}

// SandboxExecutor defines the interface for sandbox execution
type SandboxExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// Config holds settings shared by all executors
type Config struct {
	TimeoutSec     int
	MemoryMB       int
	NetworkEnabled bool
}

// Timeout returns the default execution budget
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Command is a single process invocation
type Command struct {
	Args []string
	Dir  string
	Env  []string
}

// CommandOutput is what a finished (or killed) process left behind
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// CommandRunner defines an interface for executing system commands. A
// deadline on ctx must terminate the whole process tree.
type CommandRunner interface {
	RunCommand(ctx context.Context, cmd Command) (CommandOutput, error)
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	CreateTemp(dir, pattern string, data []byte) (string, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
	FileExists(path string) (bool, error)
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// CreateTemp creates a uniquely named file holding data and returns its path
func (RealFileSystem) CreateTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (RealFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o600
)
