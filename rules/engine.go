package rules

import (
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/lang"
	"github.com/isdmx/codeprobe/report"
)

// ModelLabel identifies reports produced by the rule engine
const ModelLabel = "Pattern Analyzer"

// Message markers for the global checks
const (
	SecurityPrefix    = "SECURITY: "
	PerformancePrefix = "PERFORMANCE: "
)

// Engine evaluates a RuleSet against source text. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	rules  *RuleSet
	logger *zap.Logger
}

// NewEngine creates an Engine over rules. A nil rule set behaves as empty.
func NewEngine(rules *RuleSet, logger *zap.Logger) *Engine {
	if rules == nil {
		rules = Empty()
	}
	return &Engine{rules: rules, logger: logger}
}

// Rules returns the rule set the engine evaluates
func (e *Engine) Rules() *RuleSet {
	return e.rules
}

// Evaluate scans code and returns a rendered report. Findings are ordered:
// lexical rules in declaration order then line order, then security checks,
// then performance checks.
func (e *Engine) Evaluate(code, language string) report.Report {
	language, _ = lang.Normalize(language)
	findings := e.Findings(code, language)

	e.logger.Debug("Rule evaluation finished",
		zap.String("language", language),
		zap.Int("findings", len(findings)),
	)

	return report.Report{
		Success:  true,
		Analysis: Render(language, findings),
		Model:    ModelLabel,
		Findings: findings,
	}
}

// Findings returns the ordered findings for code without rendering a report
func (e *Engine) Findings(code, language string) []report.Finding {
	lines := strings.Split(code, "\n")
	findings := []report.Finding{}

	for _, rule := range e.rules.Patterns[language] {
		for i, line := range lines {
			if rule.Pattern.MatchString(line) {
				findings = append(findings, report.Finding{
					Line:     i + 1,
					Message:  rule.Description + ". Suggestion: " + rule.Suggestion,
					Severity: rule.Severity,
				})
			}
		}
	}

	for _, rule := range e.rules.Security {
		if !rule.Applies(language) {
			continue
		}
		for i, line := range lines {
			if rule.Pattern.MatchString(line) {
				findings = append(findings, report.Finding{
					Line:     i + 1,
					Message:  SecurityPrefix + rule.Description + ". " + rule.Suggestion,
					Severity: rule.Severity,
				})
			}
		}
	}

	for _, rule := range e.rules.Performance {
		if !rule.Applies(language) {
			continue
		}
		if rule.Pattern.MatchString(code) {
			findings = append(findings, report.Finding{
				Line:     1,
				Message:  PerformancePrefix + rule.Description + ". " + rule.Suggestion,
				Severity: rule.Severity,
			})
		}
	}

	return findings
}
