// Package report defines the data contracts shared by the analysis engines.
//
// A Report carries the rendered analysis text together with the ordered list
// of structured findings. Its JSON form is what the HTTP and MCP layers return
// to callers:
//
//	{"success": true, "analysis": "...", "model": "Pattern Analyzer",
//	 "issues": [{"lineNumber": 1, "message": "...", "severity": "info", "column": null}]}
package report
