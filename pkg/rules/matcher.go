package rules

import (
	"fmt"
	"strings"

	"github.com/helmcode/desktop-doctor/pkg/model"
)

// Matcher classifies symptom strings against a fixed rule set.
type Matcher struct {
	rules    []model.Rule
	patterns []string
}

// NewMatcher returns a matcher over the built-in catalogue.
func NewMatcher() *Matcher {
	return NewMatcherWithRules(Catalogue())
}

func NewMatcherWithRules(rules []model.Rule) *Matcher {
	m := &Matcher{rules: rules, patterns: make([]string, len(rules))}
	for i, r := range rules {
		m.patterns[i] = strings.ToLower(r.Pattern)
	}
	return m
}

// Match returns the first rule whose pattern occurs in symptom, ignoring
// case. Empty or unrecognized symptoms yield an unclassified finding.
func (m *Matcher) Match(symptom string) model.Finding {
	finding := model.Finding{Symptom: symptom, Cause: UnknownCause}

	needle := strings.ToLower(strings.TrimSpace(symptom))
	if needle == "" {
		return finding
	}

	for i, p := range m.patterns {
		if p == "" || !strings.Contains(needle, p) {
			continue
		}
		r := m.rules[i]
		finding.RuleID = r.ID
		finding.Cause = r.Cause
		finding.Remediation = append([]string(nil), r.Remediation...)
		finding.Classified = true
		return finding
	}
	return finding
}

// MatchResults classifies every check that did not pass. A failed check is
// matched on its observed symptom first, then on the derived
// "<check>: fail" symptom. Unknown checks without an observed symptom are
// skipped since they carry nothing to classify.
func (m *Matcher) MatchResults(results []model.CheckResult) []model.Finding {
	var findings []model.Finding
	for _, res := range results {
		if res.Status == model.StatusPass {
			continue
		}
		if res.Status == model.StatusUnknown && strings.TrimSpace(res.Symptom) == "" {
			continue
		}

		finding := m.Match(res.Symptom)
		if !finding.Classified {
			derived := m.Match(DerivedSymptom(res.Name, res.Status))
			if derived.Classified {
				finding.RuleID = derived.RuleID
				finding.Cause = derived.Cause
				finding.Remediation = derived.Remediation
				finding.Classified = true
			}
			if finding.Symptom == "" {
				finding.Symptom = derived.Symptom
			}
		}
		finding.Source = res.Name
		findings = append(findings, finding)
	}
	return findings
}

// MatchSymptoms classifies literal messages supplied by the user.
func (m *Matcher) MatchSymptoms(symptoms []string) []model.Finding {
	findings := make([]model.Finding, 0, len(symptoms))
	for _, s := range symptoms {
		f := m.Match(s)
		f.Source = model.InputSource
		findings = append(findings, f)
	}
	return findings
}

// DerivedSymptom is the synthetic symptom for a check with no message of its own.
func DerivedSymptom(check string, status model.Status) string {
	return fmt.Sprintf("%s: %s", check, status)
}
