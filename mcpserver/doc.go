// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes two tools through the mark3labs/mcp-go
// library: execute_code runs a snippet in the sandbox and analyze_code
// returns the same report as the HTTP analysis endpoint. Tool results are
// JSON text content.
//
// The server supports both stdio and streamable HTTP transports as
// configured by the application configuration. Over HTTP it is mounted at
// /mcp next to the JSON API.
//
// Usage:
//
//	server, err := mcpserver.New(cfg, logger, sandboxExecutor, coordinator)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or mount server.HTTPHandler()
package mcpserver
