// Package rules implements regex based static analysis.
//
// A rule document has three sections: "patterns" holds lexical rules keyed by
// language, while "security_checks" and "performance_checks" hold named
// checks filtered by their applies_to list. Documents may be JSON or YAML and
// are loaded once at startup; malformed entries are skipped with a warning.
//
// Engine.Evaluate scans source text and renders a markdown report. Lexical
// and security rules match line by line; performance rules match the whole
// text once and report at line 1.
package rules
