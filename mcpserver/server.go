package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/config"
	"github.com/isdmx/codeprobe/lang"
	"github.com/isdmx/codeprobe/report"
	"github.com/isdmx/codeprobe/sandbox"
)

// Server identity advertised to MCP clients
const (
	ServerName    = "codeprobe"
	ServerVersion = "1.0.0"
)

// Analyzer produces analysis reports
type Analyzer interface {
	Analyze(ctx context.Context, code, language string) report.Report
}

// ExecutionOutput is the JSON payload of execute_code
type ExecutionOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	Phase    string `json:"phase"`
	TimedOut bool   `json:"timed_out"`
}

// MCPServer represents the MCP server
type MCPServer struct {
	config      *config.Config
	logger      *zap.Logger
	sandboxExec sandbox.SandboxExecutor
	analyzer    Analyzer
	mcpServer   *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, sandboxExec sandbox.SandboxExecutor, analyzer Analyzer) (*MCPServer, error) {
	s := &MCPServer{
		config:      cfg,
		logger:      logger,
		sandboxExec: sandboxExec,
		analyzer:    analyzer,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.backend", cfg.Sandbox.Backend),
		zap.Int("sandbox.timeout_sec", cfg.Sandbox.TimeoutSec),
		zap.Int("sandbox.memory_mb", cfg.Sandbox.MemoryMB),
		zap.Bool("sandbox.network_enabled", cfg.Sandbox.NetworkEnabled),
		zap.String("analysis.provider.kind", cfg.Analysis.Provider.Kind),
		zap.Bool("analysis.remote_enabled", cfg.Analysis.Provider.APIKey != ""),
		zap.Bool("history.enabled", cfg.History.Enabled),
	)

	s.mcpServer = server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))

	s.registerExecuteCodeTool()
	s.registerAnalyzeCodeTool()

	return s, nil
}

func languageProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
		"enum":        lang.Known(),
	}
}

func (s *MCPServer) registerExecuteCodeTool() {
	tool := mcp.Tool{
		Name:        "execute_code",
		Description: "Execute a code snippet in a sandbox and return its output",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to run",
				},
				"language": languageProperty("Language of the code"),
			},
			Required: []string{"code", "language"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecuteCode)
}

func (s *MCPServer) registerAnalyzeCodeTool() {
	tool := mcp.Tool{
		Name:        "analyze_code",
		Description: "Analyze a code snippet for bugs, security issues and performance problems",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to analyze",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Language of the code, or \"auto\" to detect it",
				},
			},
			Required: []string{"code", "language"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleAnalyzeCode)
}

func (s *MCPServer) handleExecuteCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	language, err := request.RequireString("language")
	if err != nil {
		return nil, fmt.Errorf("language parameter is required: %w", err)
	}

	s.logger.Info("executing code in sandbox", zap.String("language", language))

	result, err := s.sandboxExec.Execute(ctx, sandbox.ExecuteRequest{
		Language: language,
		Code:     code,
	})
	if err != nil {
		s.logger.Error("sandbox execution failed",
			zap.Error(err),
			zap.String("language", language))

		message := "Execution failed"
		if errors.Is(err, sandbox.ErrUnsupportedLanguage) || errors.Is(err, sandbox.ErrEmptyCode) {
			message = err.Error()
		}
		return errorResult(message), nil
	}

	return jsonResult(ExecutionOutput{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
		Phase:    string(result.Phase),
		TimedOut: result.TimedOut,
	})
}

func (s *MCPServer) handleAnalyzeCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	language, err := request.RequireString("language")
	if err != nil {
		return nil, fmt.Errorf("language parameter is required: %w", err)
	}

	return jsonResult(s.analyzer.Analyze(ctx, code, language))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: message,
			},
		},
		IsError: true,
	}
}

// ServeStdio serves MCP on stdin/stdout until the input closes
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// HTTPHandler returns the streamable HTTP transport for mounting on a router
func (s *MCPServer) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
