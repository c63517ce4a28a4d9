package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/homedir"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultTimeout    = 5 * time.Second
	DefaultAirflowURL = "http://localhost:8080"
	DefaultFileName   = ".desktop-doctor.yaml"

	windowsPipe = `\\.\pipe\dockerDesktopLinuxEngine`
	unixSocket  = "/var/run/docker.sock"
)

type Config struct {
	Probe   ProbeConfig   `yaml:"probe"`
	Docker  DockerConfig  `yaml:"docker"`
	Airflow AirflowConfig `yaml:"airflow"`
}

type ProbeConfig struct {
	// Timeout bounds every single external query.
	Timeout time.Duration `yaml:"timeout"`
	// Skip lists check names that are not run at all.
	Skip []string `yaml:"skip,omitempty"`
}

type DockerConfig struct {
	Binary     string `yaml:"binary"`
	EnginePath string `yaml:"engine_path"`
	InstallDir string `yaml:"install_dir"`
	// Host is a remote DOCKER_HOST (tcp://, ssh://). When set there is no
	// local endpoint to look for and EnginePath is empty.
	Host string `yaml:"host,omitempty"`
}

type AirflowConfig struct {
	URL  string `yaml:"url"`
	Home string `yaml:"home"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	cfg := &Config{
		Probe: ProbeConfig{Timeout: DefaultTimeout},
		Docker: DockerConfig{
			Binary:     "docker",
			EnginePath: unixSocket,
			InstallDir: `C:\Program Files\Docker`,
		},
		Airflow: AirflowConfig{URL: DefaultAirflowURL},
	}
	if runtime.GOOS == "windows" {
		cfg.Docker.EnginePath = windowsPipe
	}
	if home := homedir.HomeDir(); home != "" {
		cfg.Airflow.Home = filepath.Join(home, "airflow")
	}
	return cfg
}

// DefaultPath is ~/.desktop-doctor.yaml, or "" when no home directory is known.
func DefaultPath() string {
	if home := homedir.HomeDir(); home != "" {
		return filepath.Join(home, DefaultFileName)
	}
	return ""
}

// Load builds the configuration from defaults, the YAML file at path and
// the process environment. An explicit path must exist; when path is empty
// the default location is read only if present.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DOCTOR_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: DOCTOR_TIMEOUT %q: %v", ErrInvalid, v, err)
		}
		c.Probe.Timeout = d
	}
	if v, ok := lookup("DOCTOR_AIRFLOW_URL"); ok && v != "" {
		c.Airflow.URL = v
	}
	if v, ok := lookup("AIRFLOW_HOME"); ok && v != "" {
		c.Airflow.Home = v
	}
	if v, ok := lookup("DOCKER_HOST"); ok && v != "" {
		if p := enginePathFromHost(v); p != "" {
			c.Docker.EnginePath = p
			c.Docker.Host = ""
		} else {
			c.Docker.EnginePath = ""
			c.Docker.Host = v
		}
	}
	return nil
}

// enginePathFromHost maps npipe:// and unix:// DOCKER_HOST values to a
// filesystem path. TCP hosts have no local path and return "".
func enginePathFromHost(host string) string {
	switch {
	case strings.HasPrefix(host, "npipe://"):
		p := strings.TrimPrefix(host, "npipe://")
		return strings.ReplaceAll(p, "/", `\`)
	case strings.HasPrefix(host, "unix://"):
		return strings.TrimPrefix(host, "unix://")
	}
	return ""
}

func (c *Config) Validate() error {
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("%w: probe timeout must be positive, got %s", ErrInvalid, c.Probe.Timeout)
	}
	if strings.TrimSpace(c.Docker.Binary) == "" {
		return fmt.Errorf("%w: docker binary must not be empty", ErrInvalid)
	}
	if c.Airflow.URL != "" && !strings.HasPrefix(c.Airflow.URL, "http://") && !strings.HasPrefix(c.Airflow.URL, "https://") {
		return fmt.Errorf("%w: airflow url %q must start with http:// or https://", ErrInvalid, c.Airflow.URL)
	}
	return nil
}

// HostScheme returns the scheme of a remote engine host, such as "tcp".
func (d DockerConfig) HostScheme() string {
	scheme, _, found := strings.Cut(d.Host, "://")
	if !found {
		return ""
	}
	return scheme
}

// Skipped reports whether the named check is disabled.
func (c *Config) Skipped(name string) bool {
	for _, s := range c.Probe.Skip {
		if s == name {
			return true
		}
	}
	return false
}
