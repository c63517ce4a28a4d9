package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultTimeout, cfg.Probe.Timeout)
	assert.Equal(t, "docker", cfg.Docker.Binary)
	assert.Equal(t, DefaultAirflowURL, cfg.Airflow.URL)
	assert.NotEmpty(t, cfg.Docker.EnginePath)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadWithEnv("", env(nil))

	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Probe.Timeout)
}

func TestLoadDefaultFileFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, DefaultFileName), []byte("probe:\n  timeout: 2s\n"), 0o600))

	cfg, err := LoadWithEnv("", env(nil))

	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, filepath.Join(home, "airflow"), cfg.Airflow.Home)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
probe:
  timeout: 750ms
  skip: [defender-exclusion, airflow-web]
docker:
  binary: /usr/local/bin/docker
airflow:
  url: http://127.0.0.1:8081
  home: /srv/airflow
`)

	cfg, err := LoadWithEnv(path, env(nil))

	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Probe.Timeout)
	assert.Equal(t, "/usr/local/bin/docker", cfg.Docker.Binary)
	assert.Equal(t, "http://127.0.0.1:8081", cfg.Airflow.URL)
	assert.Equal(t, "/srv/airflow", cfg.Airflow.Home)
	assert.True(t, cfg.Skipped("airflow-web"))
	assert.False(t, cfg.Skipped("docker-cli"))
	// untouched keys keep their defaults
	assert.Equal(t, `C:\Program Files\Docker`, cfg.Docker.InstallDir)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "probe: [not, a, map")

	_, err := LoadWithEnv(path, env(nil))

	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "probe:\n  timeout: 1s\n")

	cfg, err := LoadWithEnv(path, env(map[string]string{
		"DOCTOR_TIMEOUT":     "3s",
		"DOCTOR_AIRFLOW_URL": "http://localhost:9090",
		"AIRFLOW_HOME":       "/tmp/af",
		"DOCKER_HOST":        "npipe:////./pipe/docker_engine",
	}))

	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "http://localhost:9090", cfg.Airflow.URL)
	assert.Equal(t, "/tmp/af", cfg.Airflow.Home)
	assert.Equal(t, `\\.\pipe\docker_engine`, cfg.Docker.EnginePath)
}

func TestDockerHost(t *testing.T) {
	assert.Equal(t, "/run/user/1000/docker.sock", enginePathFromHost("unix:///run/user/1000/docker.sock"))
	assert.Equal(t, "", enginePathFromHost("tcp://10.0.0.2:2375"))
}

func TestRemoteDockerHostClearsEnginePath(t *testing.T) {
	cfg, err := LoadWithEnv(writeFile(t, "{}"), env(map[string]string{"DOCKER_HOST": "tcp://127.0.0.1:2375"}))

	require.NoError(t, err)
	assert.Empty(t, cfg.Docker.EnginePath)
	assert.Equal(t, "tcp://127.0.0.1:2375", cfg.Docker.Host)
	assert.Equal(t, "tcp", cfg.Docker.HostScheme())
}

func TestLocalDockerHostOverridesConfiguredRemote(t *testing.T) {
	cfg, err := LoadWithEnv(writeFile(t, "docker:\n  host: tcp://10.0.0.2:2376\n"), env(map[string]string{"DOCKER_HOST": "unix:///run/docker.sock"}))

	require.NoError(t, err)
	assert.Equal(t, "/run/docker.sock", cfg.Docker.EnginePath)
	assert.Empty(t, cfg.Docker.Host)
}

func TestInvalid(t *testing.T) {
	_, err := LoadWithEnv(writeFile(t, "probe:\n  timeout: 0s\n"), env(nil))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = LoadWithEnv(writeFile(t, "airflow:\n  url: localhost:8080\n"), env(nil))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = LoadWithEnv(writeFile(t, "{}"), env(map[string]string{"DOCTOR_TIMEOUT": "soon"}))
	assert.ErrorIs(t, err, ErrInvalid)
}
