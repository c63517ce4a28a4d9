package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/helmcode/desktop-doctor/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProber []model.CheckResult

func (s staticProber) Run(context.Context) []model.CheckResult { return s }

func TestDiagnose(t *testing.T) {
	prober := staticProber{
		{Name: "docker-cli", Status: model.StatusPass},
		{Name: "engine-pipe", Status: model.StatusFail, Symptom: "open //./pipe/dockerDesktopLinuxEngine: The system cannot find the file specified"},
		{Name: "wsl-status", Status: model.StatusUnknown, Detail: "not supported on linux"},
	}
	a := New(prober, nil)
	fixed := time.Date(2025, 10, 5, 22, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	report := a.Diagnose(context.Background(), []string{"Virtualization support not detected", "weird"})

	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Len(t, report.Checks, 3)
	require.Len(t, report.Findings, 3)

	assert.Equal(t, "engine-pipe", report.Findings[0].Source)
	assert.Equal(t, "engine not running", report.Findings[0].Cause)
	assert.Equal(t, model.InputSource, report.Findings[1].Source)
	assert.Equal(t, "hardware virtualization disabled", report.Findings[1].Cause)
	assert.False(t, report.Findings[2].Classified)

	assert.Equal(t, model.Summary{Passed: 1, Failed: 1, Unknown: 1, Unclassified: 1}, report.Summary)
}

func TestDiagnoseHealthy(t *testing.T) {
	report := New(staticProber{{Name: "docker-cli", Status: model.StatusPass}}, nil).Diagnose(context.Background(), nil)

	assert.NotNil(t, report.Findings)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 1, report.Summary.Passed)
}

func TestDiagnoseWithoutProber(t *testing.T) {
	report := New(nil, nil).Diagnose(context.Background(), []string{""})

	assert.Empty(t, report.Checks)
	require.Len(t, report.Findings, 1)
	assert.False(t, report.Findings[0].Classified)
}
