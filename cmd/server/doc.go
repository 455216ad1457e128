// Package main is the entry point for the codeprobe server.
//
// codeprobe runs untrusted snippets (Python, JavaScript, Java, C++, C, Go)
// in per-execution sandboxes and analyzes code with a regex rule engine,
// optionally enriched by a remote AI provider. It serves a JSON API over
// HTTP with an MCP endpoint at /mcp, or MCP alone over stdio.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
