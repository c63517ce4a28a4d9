package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/helmcode/desktop-doctor/pkg/config"
	"github.com/helmcode/desktop-doctor/pkg/model"
	"github.com/helmcode/desktop-doctor/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeProber(t *testing.T) {
	t.Helper()
	// keep the real home directory out of config loading
	t.Setenv("HOME", t.TempDir())
	color.NoColor = true

	orig := newProber
	t.Cleanup(func() { newProber = orig })
	newProber = func(cfg *config.Config, logger *zap.Logger) *probe.Prober {
		return probe.NewWithChecks([]probe.Check{
			{Name: probe.CheckDockerCLI, Title: "Docker CLI installed", Run: func(context.Context) probe.Outcome {
				return probe.Outcome{Status: model.StatusPass, Detail: "client 27.2.0"}
			}},
			{Name: probe.CheckEnginePipe, Title: "Engine endpoint present", Run: func(context.Context) probe.Outcome {
				return probe.Outcome{
					Status:  model.StatusFail,
					Symptom: "open //./pipe/dockerDesktopLinuxEngine: The system cannot find the file specified",
				}
			}},
		}, time.Second, logger)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewDiagnoseCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDiagnoseHuman(t *testing.T) {
	fakeProber(t)

	out, err := execute(t, "Virtualization support not detected")

	require.NoError(t, err, "findings must not fail the command")
	assert.Contains(t, out, "Docker Desktop Doctor")
	assert.Contains(t, out, "Symptom: Virtualization support not detected")
	assert.Contains(t, out, "engine not running (engine-pipe)")
	assert.Contains(t, out, "hardware virtualization disabled (input)")
	assert.Contains(t, out, "1 passed, 1 failed, 0 unknown, 0 unclassified")
}

func TestDiagnoseJSON(t *testing.T) {
	fakeProber(t)

	out, err := execute(t, "-o", "json", "no idea what this is")

	require.NoError(t, err)
	var report model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Checks, 2)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "engine not running", report.Findings[0].Cause)
	assert.False(t, report.Findings[1].Classified)
	assert.Equal(t, 1, report.Summary.Unclassified)
}

func TestDiagnoseVerbose(t *testing.T) {
	fakeProber(t)

	_, err := execute(t, "-v", "-o", "yaml")

	assert.NoError(t, err)
}

func TestDiagnoseBadFormat(t *testing.T) {
	fakeProber(t)

	_, err := execute(t, "-o", "xml")

	assert.ErrorContains(t, err, "unknown output format")
}

func TestDiagnoseMissingConfig(t *testing.T) {
	fakeProber(t)

	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))

	assert.ErrorContains(t, err, "failed to load config")
}

func TestDiagnoseUnknownSkippedCheck(t *testing.T) {
	fakeProber(t)
	path := filepath.Join(t.TempDir(), "doctor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("probe:\n  skip: [airflow-webui]\n"), 0o600))

	_, err := execute(t, "--config", path)

	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.ErrorContains(t, err, `unknown check "airflow-webui"`)
}

type failingWriter struct{}

var errBrokenPipe = errors.New("broken pipe")

func (failingWriter) Write([]byte) (int, error) { return 0, errBrokenPipe }

func TestDiagnoseOutputFailureIsFatal(t *testing.T) {
	fakeProber(t)

	for _, format := range []string{"human", "json"} {
		cmd := NewDiagnoseCmd()
		cmd.SetOut(failingWriter{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", format})

		err := cmd.Execute()

		assert.ErrorIs(t, err, errBrokenPipe, format)
	}
}
