package rules

import (
	"fmt"
	"strings"

	"github.com/isdmx/codeprobe/lang"
	"github.com/isdmx/codeprobe/report"
)

var recommendations = map[string][]string{
	lang.Python: {
		"Follow PEP 8 style guidelines",
		"Use a linter like flake8 or pylint",
		"Consider using type hints for better IDE support",
	},
	lang.JavaScript: {
		"Follow JavaScript Standard Style or Airbnb style guide",
		"Use ESLint to catch issues early",
		"Consider using TypeScript for better type safety",
	},
	lang.Java: {
		"Follow Google Java Style Guide",
		"Use a static code analyzer like SonarQube",
		"Follow the principles of clean code",
	},
	lang.CPP: {
		"Follow Google C++ Style Guide",
		"Use a static analyzer like Clang-Tidy",
		"Be careful with memory management",
	},
	lang.C: {
		"Compile with -Wall -Wextra and fix every warning",
		"Use a static analyzer like cppcheck",
		"Check every allocation and buffer length",
	},
	lang.Go: {
		"Run gofmt and go vet on every change",
		"Use staticcheck or golangci-lint",
		"Handle every returned error explicitly",
	},
}

var bestPractices = []string{
	"Continue following good coding practices",
	"Consider adding more comments to document your code",
	"Write unit tests to ensure code reliability",
}

// Render builds the markdown report text for findings
func Render(language string, findings []report.Finding) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Code Analysis for %s Code\n\n## Summary\n", lang.DisplayName(language))

	if len(findings) == 0 {
		b.WriteString("No issues detected in the provided code.\n\n## Recommendations\n")
		writeList(&b, bestPractices)
		return b.String()
	}

	errs, warnings, infos := report.Report{Findings: findings}.Counts()
	fmt.Fprintf(&b, "Found %d issues in the code (%d errors, %d warnings, %d info).\n\n## Issues\n",
		len(findings), errs, warnings, infos)

	for _, f := range findings {
		fmt.Fprintf(&b, "%s **Line %d**: %s\n\n", marker(f.Severity), f.Line, f.Message)
	}

	b.WriteString("\n## Recommendations\n")
	if recs, ok := recommendations[language]; ok {
		writeList(&b, recs)
	} else {
		writeList(&b, bestPractices)
	}

	return b.String()
}

func marker(s report.Severity) string {
	switch s {
	case report.SeverityError:
		return "🔴"
	case report.SeverityWarning:
		return "🟠"
	default:
		return "🔵"
	}
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
