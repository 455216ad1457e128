package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/codeprobe/config"
	"github.com/isdmx/codeprobe/report"
	"github.com/isdmx/codeprobe/sandbox"
)

// MockSandboxExecutor implements sandbox.SandboxExecutor for testing
type MockSandboxExecutor struct {
	executeResult sandbox.ExecuteResult
	executeError  error
	lastRequest   sandbox.ExecuteRequest
}

func (m *MockSandboxExecutor) Execute(_ context.Context, req sandbox.ExecuteRequest) (sandbox.ExecuteResult, error) { //nolint:gocritic // Mock implementation requires full parameter signature
	m.lastRequest = req
	return m.executeResult, m.executeError
}

// MockAnalyzer implements Analyzer for testing
type MockAnalyzer struct {
	lastLanguage string
}

func (m *MockAnalyzer) Analyze(_ context.Context, _, language string) report.Report {
	m.lastLanguage = language
	return report.Report{
		Success:  true,
		Analysis: "# Code Analysis",
		Model:    "Pattern Analyzer",
		Findings: []report.Finding{{Line: 2, Message: "Bare except clause", Severity: report.SeverityWarning}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Transport: "stdio", HTTPPort: 8080},
		Sandbox: config.SandboxConfig{Backend: "local", TimeoutSec: 10, MemoryMB: 512},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "text", text.Type)
	return text.Text
}

func TestNewMCPServer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	mockExecutor := &MockSandboxExecutor{}
	mockAnalyzer := &MockAnalyzer{}

	server, err := New(cfg, logger, mockExecutor, mockAnalyzer)
	require.NoError(t, err)
	require.NotNil(t, server)
	assert.Equal(t, cfg, server.config)
	assert.Equal(t, mockExecutor, server.sandboxExec)
	assert.NotNil(t, server.GetMCPServer())
	assert.NotNil(t, server.HTTPHandler())
}

func TestExecuteCodeTool(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		executor := &MockSandboxExecutor{
			executeResult: sandbox.ExecuteResult{Stdout: "hello \"world\"\n", Phase: sandbox.PhaseRun},
		}
		server, err := New(testConfig(), zaptest.NewLogger(t), executor, &MockAnalyzer{})
		require.NoError(t, err)

		result, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{
			"code":     "print('hello \"world\"')",
			"language": "python",
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var out ExecutionOutput
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
		assert.Equal(t, "hello \"world\"\n", out.Stdout)
		assert.Equal(t, "run", out.Phase)
		assert.False(t, out.TimedOut)

		assert.Equal(t, "python", executor.lastRequest.Language)
	})

	t.Run("Timeout", func(t *testing.T) {
		executor := &MockSandboxExecutor{
			executeResult: sandbox.ExecuteResult{Stderr: sandbox.TimeoutMessage, TimedOut: true, ExitCode: sandbox.TimeoutExitCode, Phase: sandbox.PhaseRun},
		}
		server, err := New(testConfig(), zaptest.NewLogger(t), executor, &MockAnalyzer{})
		require.NoError(t, err)

		result, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{
			"code": "while True: pass", "language": "python",
		}))
		require.NoError(t, err)

		var out ExecutionOutput
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
		assert.True(t, out.TimedOut)
		assert.Equal(t, "Execution timed out", out.Stderr)
		assert.Equal(t, 124, out.ExitCode)
	})

	t.Run("UnsupportedLanguage", func(t *testing.T) {
		executor := &MockSandboxExecutor{executeError: fmt.Errorf("%w: cobol", sandbox.ErrUnsupportedLanguage)}
		server, err := New(testConfig(), zaptest.NewLogger(t), executor, &MockAnalyzer{})
		require.NoError(t, err)

		result, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{
			"code": "DISPLAY 'HI'.", "language": "cobol",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "unsupported language: cobol", resultText(t, result))
	})

	t.Run("InternalErrorIsHidden", func(t *testing.T) {
		executor := &MockSandboxExecutor{executeError: errors.New("failed to create container: daemon unreachable")}
		server, err := New(testConfig(), zaptest.NewLogger(t), executor, &MockAnalyzer{})
		require.NoError(t, err)

		result, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{
			"code": "print(1)", "language": "python",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "Execution failed", resultText(t, result))
	})

	t.Run("MissingArguments", func(t *testing.T) {
		server, err := New(testConfig(), zaptest.NewLogger(t), &MockSandboxExecutor{}, &MockAnalyzer{})
		require.NoError(t, err)

		_, err = server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{"language": "python"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code parameter is required")

		_, err = server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{"code": "x"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "language parameter is required")
	})
}

func TestAnalyzeCodeTool(t *testing.T) {
	analyzer := &MockAnalyzer{}
	server, err := New(testConfig(), zaptest.NewLogger(t), &MockSandboxExecutor{}, analyzer)
	require.NoError(t, err)

	result, err := server.handleAnalyzeCode(context.Background(), callRequest("analyze_code", map[string]any{
		"code":     "try:\n    x()\nexcept:\n    pass",
		"language": "auto",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "auto", analyzer.lastLanguage)

	var out report.Report
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "Pattern Analyzer", out.Model)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, 2, out.Findings[0].Line)
	assert.Equal(t, report.SeverityWarning, out.Findings[0].Severity)

	_, err = server.handleAnalyzeCode(context.Background(), callRequest("analyze_code", map[string]any{"code": "x"}))
	require.Error(t, err)
}
