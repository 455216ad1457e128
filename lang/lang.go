package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonical language identifiers
const (
	Python     = "python"
	JavaScript = "javascript"
	Java       = "java"
	CPP        = "cpp"
	C          = "c"
	Go         = "go"
)

// Auto asks for the language to be detected from the source text
const Auto = "auto"

var aliases = map[string]string{
	"python":     Python,
	"python3":    Python,
	"py":         Python,
	"javascript": JavaScript,
	"js":         JavaScript,
	"node":       JavaScript,
	"nodejs":     JavaScript,
	"java":       Java,
	"cpp":        CPP,
	"c++":        CPP,
	"cxx":        CPP,
	"c":          C,
	"go":         Go,
	"golang":     Go,
}

// Normalize maps a user supplied language token to its canonical identifier.
// Unknown tokens are returned lowercased and trimmed with ok=false.
func Normalize(language string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(language))
	if canonical, ok := aliases[key]; ok {
		return canonical, true
	}
	return key, false
}

// Known returns the canonical identifiers in a stable order
func Known() []string {
	return []string{Python, JavaScript, Java, CPP, C, Go}
}

// DisplayName returns the human readable name used in reports
func DisplayName(language string) string {
	switch language {
	case Python:
		return "Python"
	case JavaScript:
		return "JavaScript"
	case Java:
		return "Java"
	case CPP:
		return "C++"
	case C:
		return "C"
	case Go:
		return "Go"
	case "":
		return ""
	default:
		r, size := utf8.DecodeRuneInString(language)
		return string(unicode.ToUpper(r)) + language[size:]
	}
}
