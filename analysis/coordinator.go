package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/lang"
	"github.com/isdmx/codeprobe/metrics"
	"github.com/isdmx/codeprobe/provider"
	"github.com/isdmx/codeprobe/ratelimit"
	"github.com/isdmx/codeprobe/report"
	"github.com/isdmx/codeprobe/rules"
)

// NoCodeText is the analysis text returned for empty input
const NoCodeText = "# Code Analysis\n\nNo code provided for analysis."

// DefaultMinRemoteLength is the shortest trimmed snippet sent to the provider
const DefaultMinRemoteLength = 50

// Report sources used as metric labels
const (
	sourceLocal    = "local"
	sourceRemote   = "remote"
	sourceCombined = "combined"
)

// Coordinator combines the rule engine with an optional remote provider. The
// rule engine report is always computed first and is returned whenever the
// remote path is unavailable, throttled, skipped or failing.
type Coordinator struct {
	engine          *rules.Engine
	generator       provider.Generator
	limiter         *ratelimit.Window
	minRemoteLength int
	logger          *zap.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithGenerator enables remote analysis. A nil generator leaves it disabled.
func WithGenerator(g provider.Generator) Option {
	return func(c *Coordinator) {
		c.generator = g
	}
}

// WithMinRemoteLength sets the minimum trimmed code length for remote calls
func WithMinRemoteLength(n int) Option {
	return func(c *Coordinator) {
		c.minRemoteLength = n
	}
}

// NewCoordinator creates a Coordinator
func NewCoordinator(engine *rules.Engine, limiter *ratelimit.Window, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:          engine,
		limiter:         limiter,
		minRemoteLength: DefaultMinRemoteLength,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoteEnabled reports whether a provider is configured
func (c *Coordinator) RemoteEnabled() bool {
	return c.generator != nil
}

// Model returns the label of the model that produces remote analyses, or the
// rule engine label when remote analysis is disabled
func (c *Coordinator) Model() string {
	if c.generator == nil {
		return rules.ModelLabel
	}
	return c.generator.Model()
}

// Analyze returns the analysis report for code. It never fails: provider
// faults degrade to the rule engine report.
func (c *Coordinator) Analyze(ctx context.Context, code, language string) report.Report {
	language = strings.TrimSpace(language)
	if code == "" || language == "" {
		return report.Report{Success: true, Analysis: NoCodeText, Model: rules.ModelLabel}
	}

	language = c.resolveLanguage(code, language)
	local := c.engine.Evaluate(code, language)

	if c.generator == nil {
		return c.done(language, sourceLocal, local)
	}

	if c.limiter != nil && c.limiter.ShouldThrottle() {
		metrics.ThrottledTotal.Inc()
		c.logger.Warn("Approaching AI provider rate limit, using pattern analysis only",
			zap.String("language", language))
		return c.done(language, sourceLocal, local)
	}

	if len(strings.TrimSpace(code)) < c.minRemoteLength {
		c.logger.Debug("Code below remote analysis threshold",
			zap.String("language", language),
			zap.Int("min_length", c.minRemoteLength))
		return c.done(language, sourceLocal, local)
	}

	model := c.generator.Model()
	start := time.Now()
	text, err := c.generator.Generate(ctx, BuildPrompt(code, language))
	metrics.ProviderLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(model, "error").Inc()
		c.logger.Error("AI analysis failed, using pattern analysis only",
			zap.String("language", language),
			zap.String("model", model),
			zap.Error(err))
		return c.done(language, sourceLocal, local)
	}
	metrics.ProviderRequestsTotal.WithLabelValues(model, "ok").Inc()

	switch {
	case strings.TrimSpace(text) == "":
		return c.done(language, sourceLocal, local)
	case len(local.Findings) == 0:
		return c.done(language, sourceRemote, report.Report{Success: true, Analysis: text, Model: model})
	default:
		return c.done(language, sourceCombined, Merge(local, text, model))
	}
}

func (c *Coordinator) resolveLanguage(code, language string) string {
	if !strings.EqualFold(language, lang.Auto) {
		canonical, _ := lang.Normalize(language)
		return canonical
	}

	detected, ok := lang.Detect(code)
	if !ok {
		c.logger.Debug("Could not detect language")
		return lang.Auto
	}
	c.logger.Debug("Detected language", zap.String("language", detected))
	return detected
}

func (c *Coordinator) done(language, source string, r report.Report) report.Report {
	metrics.AnalysesTotal.WithLabelValues(language, source).Inc()
	return r
}

// Merge combines the rule engine report with remote narrative text. Findings
// are always the local ones; remote output is not parsed.
func Merge(local report.Report, aiText, model string) report.Report {
	analysis := fmt.Sprintf("# Combined Code Analysis\n\n## AI Analysis\n%s\n\n## Pattern-Based Analysis\n%s\n",
		aiText, local.Analysis)

	return report.Report{
		Success:  true,
		Analysis: analysis,
		Model:    model + " + " + rules.ModelLabel,
		Findings: local.Findings,
	}
}
