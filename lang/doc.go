// Package lang normalizes programming language identifiers.
//
// Callers refer to languages with loose tokens ("js", "nodejs", "c++").
// Normalize maps them to the canonical identifiers used as keys by the
// toolchain registry and the rule set. Detect guesses a language from source
// text using go-enry and a small set of regex heuristics.
package lang
