package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/helmcode/desktop-doctor/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	color.NoColor = true
}

func sampleReport() *model.Report {
	checks := []model.CheckResult{
		{Name: "docker-cli", Title: "Docker CLI installed", Status: model.StatusPass, Detail: "client 27.2.0"},
		{Name: "engine-pipe", Title: "Engine endpoint present", Status: model.StatusFail, Symptom: "open //./pipe/dockerDesktopLinuxEngine: The system cannot find the file specified"},
		{Name: "wsl-status", Title: "WSL 2 default", Status: model.StatusUnknown, Detail: "not supported on linux"},
	}
	findings := []model.Finding{
		{Source: "engine-pipe", Symptom: checks[1].Symptom, RuleID: "engine-pipe-missing", Cause: "engine not running", Remediation: []string{"start the engine and retry"}, Classified: true},
		{Source: model.InputSource, Symptom: "strange", Cause: "unknown cause"},
	}
	return &model.Report{
		Platform:    "windows/amd64",
		GeneratedAt: time.Date(2025, 10, 5, 22, 0, 0, 0, time.UTC),
		Checks:      checks,
		Findings:    findings,
		Summary:     model.Summarize(checks, findings),
	}
}

func TestDisplayHuman(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, DisplayReport(&buf, sampleReport(), FormatHuman))

	out := buf.String()
	assert.Contains(t, out, "✓ docker-cli ")
	assert.Contains(t, out, "✗ engine-pipe")
	assert.Contains(t, out, "? wsl-status")
	assert.Contains(t, out, "1. 🔴 engine not running (engine-pipe)")
	assert.Contains(t, out, "Fix: start the engine and retry")
	assert.Contains(t, out, "2. ⚪ unclassified issue (input)")
	assert.Contains(t, out, "1 passed, 1 failed, 1 unknown, 1 unclassified")
}

func TestDisplayHumanNoFindings(t *testing.T) {
	var buf bytes.Buffer
	r := &model.Report{Checks: []model.CheckResult{{Name: "docker-cli", Status: model.StatusPass}}}

	require.NoError(t, DisplayReport(&buf, r, ""))

	assert.Contains(t, buf.String(), "No problems found")
}

func TestDisplayJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, DisplayReport(&buf, sampleReport(), FormatJSON))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Checks, 3)
	assert.Equal(t, "engine not running", decoded.Findings[0].Cause)
}

func TestDisplayYAML(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, DisplayReport(&buf, sampleReport(), FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "windows/amd64", decoded["platform"])
}

func TestDisplayUnknownFormat(t *testing.T) {
	err := DisplayReport(&bytes.Buffer{}, sampleReport(), "xml")

	assert.ErrorContains(t, err, "unknown output format")
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat(FormatYAML))
}

type brokenWriter struct{ after int }

var errClosed = errors.New("stdout closed")

func (b *brokenWriter) Write(p []byte) (int, error) {
	if b.after <= 0 {
		return 0, errClosed
	}
	b.after--
	return len(p), nil
}

func TestWriteErrorsSurface(t *testing.T) {
	for _, format := range Formats {
		err := DisplayReport(&brokenWriter{}, sampleReport(), format)
		assert.Error(t, err, format)
	}

	// the human format writes piecemeal, so a failure midway must surface too
	err := DisplayReport(&brokenWriter{after: 3}, sampleReport(), FormatHuman)
	assert.ErrorIs(t, err, errClosed)
}
