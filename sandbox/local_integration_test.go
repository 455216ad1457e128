package sandbox

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func requireTool(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}
}

func newRealLocalExecutor(t *testing.T, timeoutSec int) *LocalExecutor {
	t.Helper()
	registry, err := NewRegistry(nil)
	require.NoError(t, err)
	return NewLocalExecutor(zaptest.NewLogger(t), &Config{TimeoutSec: timeoutSec, MemoryMB: 256}, registry)
}

func TestLocalExecutorToolchains(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping toolchain integration tests in short mode")
	}

	tests := []struct {
		name     string
		tools    []string
		language string
		code     string
		stdout   string
	}{
		{"Python", []string{"python3"}, "python", "print('Hello, World!')", "Hello, World!\n"},
		{"JavaScript", []string{"node"}, "javascript", "console.log('Hello, World!')", "Hello, World!\n"},
		{"C", []string{"gcc"}, "c", "#include <stdio.h>\nint main(void) { printf(\"Hello, World!\\n\"); return 0; }", "Hello, World!\n"},
		{"Cpp", []string{"g++"}, "cpp", "#include <iostream>\nint main() { std::cout << \"Hello, World!\" << std::endl; }", "Hello, World!\n"},
		{"Java", []string{"javac", "java"}, "java", "public class Main { public static void main(String[] a) { System.out.println(\"Hello, World!\"); } }", "Hello, World!\n"},
		{"Go", []string{"go"}, "go", "package main\nimport \"fmt\"\nfunc main() { fmt.Println(\"Hello, World!\") }", "Hello, World!\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireTool(t, tt.tools...)
			executor := newRealLocalExecutor(t, 60)

			result, err := executor.Execute(context.Background(), ExecuteRequest{Language: tt.language, Code: tt.code})
			require.NoError(t, err)
			assert.Equal(t, tt.stdout, result.Stdout, result.Stderr)
			assert.Equal(t, 0, result.ExitCode)
		})
	}
}

func TestLocalExecutorRealCompileError(t *testing.T) {
	requireTool(t, "gcc")
	executor := newRealLocalExecutor(t, 30)

	result, err := executor.Execute(context.Background(), ExecuteRequest{Language: "c", Code: "int main(void) { return }"})
	require.NoError(t, err)
	assert.Equal(t, PhaseCompile, result.Phase)
	assert.Empty(t, result.Stdout)
	assert.Contains(t, result.Stderr, "error")
	assert.NotZero(t, result.ExitCode)
}

func TestLocalExecutorRealTimeout(t *testing.T) {
	requireTool(t, "python3")
	registry, err := NewRegistry(nil)
	require.NoError(t, err)
	fs := &MockFileSystem{}
	executor := NewLocalExecutor(zaptest.NewLogger(t), &Config{TimeoutSec: 1, MemoryMB: 256}, registry,
		WithLocalFileSystem(fs))

	start := time.Now()
	result, err := executor.Execute(context.Background(), ExecuteRequest{
		Language: "python",
		Code:     "import time\nprint('started', flush=True)\ntime.sleep(30)",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, result.TimedOut)
	assert.Empty(t, result.Stdout)
	assert.Equal(t, TimeoutMessage, result.Stderr)

	require.Len(t, fs.createdPaths, 1)
	_, statErr := os.Stat(fs.createdPaths[0])
	assert.True(t, os.IsNotExist(statErr), "workspace must be removed")
}
