package model

import "time"

// Status is the outcome of a single environment check.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// InputSource marks findings that came from a symptom passed on the command line.
const InputSource = "input"

type CheckResult struct {
	Name     string        `json:"name" yaml:"name"`
	Title    string        `json:"title" yaml:"title"`
	Status   Status        `json:"status" yaml:"status"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Symptom  string        `json:"symptom,omitempty" yaml:"symptom,omitempty"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Rule is one entry of the symptom catalogue.
type Rule struct {
	ID          string   `json:"id" yaml:"id"`
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Cause       string   `json:"cause" yaml:"cause"`
	Remediation []string `json:"remediation" yaml:"remediation"`
}

type Finding struct {
	Source      string   `json:"source" yaml:"source"`
	Symptom     string   `json:"symptom" yaml:"symptom"`
	RuleID      string   `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Cause       string   `json:"cause" yaml:"cause"`
	Remediation []string `json:"remediation,omitempty" yaml:"remediation,omitempty"`
	Classified  bool     `json:"classified" yaml:"classified"`
}

type Summary struct {
	Passed       int `json:"passed" yaml:"passed"`
	Failed       int `json:"failed" yaml:"failed"`
	Unknown      int `json:"unknown" yaml:"unknown"`
	Unclassified int `json:"unclassified" yaml:"unclassified"`
}

type Report struct {
	Platform    string        `json:"platform" yaml:"platform"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Checks      []CheckResult `json:"checks" yaml:"checks"`
	Findings    []Finding     `json:"findings" yaml:"findings"`
	Summary     Summary       `json:"summary" yaml:"summary"`
}

// Summarize counts check statuses and unclassified findings.
func Summarize(checks []CheckResult, findings []Finding) Summary {
	var s Summary
	for _, c := range checks {
		switch c.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		default:
			s.Unknown++
		}
	}
	for _, f := range findings {
		if !f.Classified {
			s.Unclassified++
		}
	}
	return s
}
