package analyzer

import (
	"context"
	"runtime"
	"time"

	"github.com/helmcode/desktop-doctor/pkg/model"
	"github.com/helmcode/desktop-doctor/pkg/rules"
	"go.uber.org/zap"
)

// Prober is the environment side of a diagnosis.
type Prober interface {
	Run(ctx context.Context) []model.CheckResult
}

type Analyzer struct {
	prober  Prober
	matcher *rules.Matcher
	logger  *zap.Logger
	now     func() time.Time
}

func New(prober Prober, logger *zap.Logger) *Analyzer {
	return NewWithMatcher(prober, rules.NewMatcher(), logger)
}

func NewWithMatcher(prober Prober, matcher *rules.Matcher, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{prober: prober, matcher: matcher, logger: logger, now: time.Now}
}

// Diagnose probes the environment, classifies every failed check and every
// user-supplied symptom, and returns the combined report. It does not fail:
// problems are part of the report.
func (a *Analyzer) Diagnose(ctx context.Context, symptoms []string) *model.Report {
	var checks []model.CheckResult
	if a.prober != nil {
		checks = a.prober.Run(ctx)
	}

	findings := a.matcher.MatchResults(checks)
	findings = append(findings, a.matcher.MatchSymptoms(symptoms)...)

	report := &model.Report{
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		GeneratedAt: a.now().UTC(),
		Checks:      checks,
		Findings:    findings,
		Summary:     model.Summarize(checks, findings),
	}
	if report.Checks == nil {
		report.Checks = []model.CheckResult{}
	}
	if report.Findings == nil {
		report.Findings = []model.Finding{}
	}

	a.logger.Debug("Diagnosis complete",
		zap.Int("checks", len(checks)),
		zap.Int("findings", len(findings)),
		zap.Int("unclassified", report.Summary.Unclassified))
	return report
}
