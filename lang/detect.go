package lang

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

var enryNames = map[string]string{
	"Python":     Python,
	"JavaScript": JavaScript,
	"Java":       Java,
	"C++":        CPP,
	"C":          C,
	"Go":         Go,
}

// heuristics are checked in order; the first language with a matching
// marker wins. Order matters where languages share syntax (C vs C++).
var heuristics = []struct {
	language string
	markers  []*regexp.Regexp
}{
	{Go, []*regexp.Regexp{
		regexp.MustCompile(`(?m)^package\s+\w+`),
		regexp.MustCompile(`\bfunc\s+\w*\s*\(`),
	}},
	{Java, []*regexp.Regexp{
		regexp.MustCompile(`\bpublic\s+(static\s+)?(class|void)\b`),
		regexp.MustCompile(`System\.out\.print`),
	}},
	{CPP, []*regexp.Regexp{
		regexp.MustCompile(`#include\s*<(iostream|vector|string|map|algorithm)>`),
		regexp.MustCompile(`\bstd::`),
		regexp.MustCompile(`\bcout\s*<<`),
	}},
	{C, []*regexp.Regexp{
		regexp.MustCompile(`#include\s*<\w+\.h>`),
		regexp.MustCompile(`\bprintf\s*\(`),
	}},
	{Python, []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(.*\)\s*:`),
		regexp.MustCompile(`(?m)^\s*(import\s+\w+|from\s+\w+\s+import)`),
		regexp.MustCompile(`(?m)^\s*print\s*\(`),
		regexp.MustCompile(`if\s+__name__\s*==`),
	}},
	{JavaScript, []*regexp.Regexp{
		regexp.MustCompile(`console\.(log|error|warn)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(const|let|var)\s+\w+\s*=`),
		regexp.MustCompile(`\bfunction\s+\w*\s*\(`),
		regexp.MustCompile(`=>\s*[{(]`),
	}},
}

// Detect guesses the canonical language of code. It tries the shebang line,
// then regex heuristics, and finally the go-enry classifier restricted to the
// supported languages.
func Detect(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}

	if strings.HasPrefix(trimmed, "#!") {
		if name, safe := enry.GetLanguageByShebang([]byte(trimmed)); safe {
			if canonical, ok := enryNames[name]; ok {
				return canonical, true
			}
		}
	}

	for _, h := range heuristics {
		for _, re := range h.markers {
			if re.MatchString(code) {
				return h.language, true
			}
		}
	}

	candidates := make([]string, 0, len(enryNames))
	for name := range enryNames {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	if name, _ := enry.GetLanguageByClassifier([]byte(code), candidates); name != "" {
		if canonical, ok := enryNames[name]; ok {
			return canonical, true
		}
	}

	return "", false
}
