// Package httpapi serves the JSON API used by the web frontend: code
// execution, code analysis, analysis history, health and Prometheus
// metrics. The MCP streamable HTTP endpoint can be mounted at /mcp on the
// same listener.
//
// Routes:
//
//	POST /api/execute/{language}  {code} -> {output, error}
//	POST /api/analyze             {code, language} -> report
//	POST /api/debug               alias of /api/analyze
//	GET  /api/history?limit=N     recent analyses, newest first
//	GET  /api/health
//	GET  /api/model-info
//	GET  /metrics
package httpapi
