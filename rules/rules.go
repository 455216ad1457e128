package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/isdmx/codeprobe/lang"
	"github.com/isdmx/codeprobe/report"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Top-level sections of a rule document
const (
	sectionPatterns    = "patterns"
	sectionSecurity    = "security_checks"
	sectionPerformance = "performance_checks"
)

// Rule is a validated pattern rule
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
	Suggestion  string
	Severity    report.Severity
	AppliesTo   []string
}

// Applies reports whether the rule is enabled for language
func (r Rule) Applies(language string) bool {
	for _, l := range r.AppliesTo {
		if l == language {
			return true
		}
	}
	return false
}

// RuleSet holds the rules loaded at startup. It is read-only once built.
type RuleSet struct {
	Patterns    map[string][]Rule
	Security    []Rule
	Performance []Rule
}

// Empty returns a rule set without rules
func Empty() *RuleSet {
	return &RuleSet{Patterns: map[string][]Rule{}}
}

// Size returns the total number of rules
func (rs *RuleSet) Size() int {
	n := len(rs.Security) + len(rs.Performance)
	for _, rules := range rs.Patterns {
		n += len(rules)
	}
	return n
}

// RuleLoadError reports a rule document that could not be used at all
type RuleLoadError struct {
	Source string
	Err    error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("failed to load rules from %s: %v", e.Source, e.Err)
}

func (e *RuleLoadError) Unwrap() error {
	return e.Err
}

type rawRule struct {
	Pattern     string   `yaml:"pattern"`
	Description string   `yaml:"description"`
	Suggestion  string   `yaml:"suggestion"`
	Severity    string   `yaml:"severity"`
	AppliesTo   []string `yaml:"applies_to"`
}

// Default returns the rule set embedded in the binary
func Default(logger *zap.Logger) *RuleSet {
	rs, err := Parse(defaultRules, "embedded", logger)
	if err != nil {
		logger.Error("Embedded rule set is invalid", zap.Error(err))
		return Empty()
	}
	return rs
}

// Load reads a rule document from path. An empty path selects the embedded
// rules. On failure the returned rule set is empty and usable, and the error
// is a *RuleLoadError.
func Load(path string, logger *zap.Logger) (*RuleSet, error) {
	if path == "" {
		return Default(logger), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), &RuleLoadError{Source: path, Err: err}
	}

	return Parse(data, path, logger)
}

// Parse decodes a JSON or YAML rule document. Mapping order is kept so that
// security and performance checks run in declaration order. Malformed entries
// are skipped with a warning.
func Parse(data []byte, source string, logger *zap.Logger) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Empty(), &RuleLoadError{Source: source, Err: err}
	}

	rs := Empty()
	if len(doc.Content) == 0 {
		return rs, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Empty(), &RuleLoadError{Source: source, Err: errors.New("top level must be a mapping")}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case sectionPatterns:
			rs.Patterns = parsePatterns(value, logger)
		case sectionSecurity:
			rs.Security = parseChecks(key, value, logger)
		case sectionPerformance:
			rs.Performance = parseChecks(key, value, logger)
		default:
			logger.Warn("Ignoring unknown rule section", zap.String("section", key))
		}
	}

	logger.Info("Loaded rule set",
		zap.String("source", source),
		zap.Int("languages", len(rs.Patterns)),
		zap.Int("security_checks", len(rs.Security)),
		zap.Int("performance_checks", len(rs.Performance)),
	)

	return rs, nil
}

func parsePatterns(node *yaml.Node, logger *zap.Logger) map[string][]Rule {
	patterns := map[string][]Rule{}
	if node.Kind != yaml.MappingNode {
		logger.Warn("Skipping patterns section: expected a mapping of languages", zap.Int("line", node.Line))
		return patterns
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		language, _ := lang.Normalize(node.Content[i].Value)
		entries := node.Content[i+1]
		if entries.Kind != yaml.SequenceNode {
			logger.Warn("Skipping patterns for language: expected a list",
				zap.String("language", language), zap.Int("line", entries.Line))
			continue
		}

		for j, entry := range entries.Content {
			name := fmt.Sprintf("%s[%d]", language, j)
			rule, err := buildRule(name, entry, false)
			if err != nil {
				logger.Warn("Skipping malformed rule", zap.String("rule", name), zap.Int("line", entry.Line), zap.Error(err))
				continue
			}
			rule.AppliesTo = []string{language}
			patterns[language] = append(patterns[language], rule)
		}
	}

	return patterns
}

func parseChecks(section string, node *yaml.Node, logger *zap.Logger) []Rule {
	if node.Kind != yaml.MappingNode {
		logger.Warn("Skipping rule section: expected a mapping of named checks",
			zap.String("section", section), zap.Int("line", node.Line))
		return nil
	}

	var checks []Rule
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		entry := node.Content[i+1]
		rule, err := buildRule(name, entry, true)
		if err != nil {
			logger.Warn("Skipping malformed rule",
				zap.String("section", section), zap.String("rule", name), zap.Int("line", entry.Line), zap.Error(err))
			continue
		}
		checks = append(checks, rule)
	}

	return checks
}

func buildRule(name string, node *yaml.Node, needsAppliesTo bool) (Rule, error) {
	if node.Kind != yaml.MappingNode {
		return Rule{}, errors.New("rule must be a mapping")
	}

	var raw rawRule
	if err := node.Decode(&raw); err != nil {
		return Rule{}, err
	}

	if raw.Pattern == "" {
		return Rule{}, errors.New("pattern is required")
	}
	if strings.TrimSpace(raw.Description) == "" {
		return Rule{}, errors.New("description is required")
	}

	re, err := regexp.Compile(raw.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern: %w", err)
	}

	severity, err := report.ParseSeverity(strings.ToLower(raw.Severity))
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{
		Name:        name,
		Pattern:     re,
		Description: raw.Description,
		Suggestion:  raw.Suggestion,
		Severity:    severity,
	}

	if needsAppliesTo {
		if len(raw.AppliesTo) == 0 {
			return Rule{}, errors.New("applies_to must list at least one language")
		}
		for _, l := range raw.AppliesTo {
			canonical, _ := lang.Normalize(l)
			rule.AppliesTo = append(rule.AppliesTo, canonical)
		}
	}

	return rule, nil
}
