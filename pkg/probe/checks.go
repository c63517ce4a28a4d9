package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/helmcode/desktop-doctor/pkg/airflow"
	"github.com/helmcode/desktop-doctor/pkg/config"
	"github.com/helmcode/desktop-doctor/pkg/docker"
	"github.com/helmcode/desktop-doctor/pkg/model"
	"github.com/helmcode/desktop-doctor/pkg/parser"
)

// Check names, in the order they run.
const (
	CheckDockerCLI         = "docker-cli"
	CheckComposeCLI        = "compose-cli"
	CheckEnginePipe        = "engine-pipe"
	CheckEngineInfo        = "engine-info"
	CheckDesktopProcess    = "desktop-process"
	CheckDesktopService    = "desktop-service"
	CheckVirtualization    = "virtualization"
	CheckWSLFeature        = "wsl-feature"
	CheckVMPlatform        = "vm-platform"
	CheckWSLStatus         = "wsl-status"
	CheckWindowsBuild      = "windows-build"
	CheckDefenderExclusion = "defender-exclusion"
	CheckAirflowWeb        = "airflow-web"
	CheckAirflowHome       = "airflow-home"
)

type environment struct {
	cfg     *config.Config
	deps    Deps
	docker  *docker.Client
	airflow *airflow.Client
}

func (e *environment) checks() []Check {
	return []Check{
		{Name: CheckDockerCLI, Title: "Docker CLI installed", Run: e.dockerCLI},
		{Name: CheckComposeCLI, Title: "Docker Compose available", Run: e.composeCLI},
		{Name: CheckEnginePipe, Title: "Engine endpoint present", Run: e.enginePipe},
		{Name: CheckEngineInfo, Title: "Engine answering", Run: e.engineInfo},
		{Name: CheckDesktopProcess, Title: "Docker Desktop running", Run: e.desktopProcess},
		{Name: CheckDesktopService, Title: "Docker Desktop service", Run: e.desktopService},
		{Name: CheckVirtualization, Title: "Hardware virtualization", Run: e.virtualization},
		{Name: CheckWSLFeature, Title: "WSL optional feature", Run: e.optionalFeature("Microsoft-Windows-Subsystem-Linux")},
		{Name: CheckVMPlatform, Title: "Virtual Machine Platform feature", Run: e.optionalFeature("VirtualMachinePlatform")},
		{Name: CheckWSLStatus, Title: "WSL 2 default", Run: e.wslStatus},
		{Name: CheckWindowsBuild, Title: "Windows build supports WSL 2", Run: e.windowsBuild},
		{Name: CheckDefenderExclusion, Title: "Defender exclusion for Docker", Run: e.defenderExclusion},
		{Name: CheckAirflowWeb, Title: "Airflow web UI", Run: e.airflowWeb},
		{Name: CheckAirflowHome, Title: "Airflow home directory", Run: e.airflowHome},
	}
}

func pass(format string, args ...any) Outcome {
	return Outcome{Status: model.StatusPass, Detail: fmt.Sprintf(format, args...)}
}

func fail(detail, symptom string) Outcome {
	return Outcome{Status: model.StatusFail, Detail: detail, Symptom: symptom}
}

func unknown(detail, symptom string) Outcome {
	return Outcome{Status: model.StatusUnknown, Detail: detail, Symptom: symptom}
}

func (e *environment) unsupported() Outcome {
	return unknown("not supported on "+e.deps.GOOS, "")
}

// queryFailed maps an error from an external query tool to an outcome.
// A missing tool or an expired context carries no symptom worth matching.
func queryFailed(err error) Outcome {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return unknown("query tool unavailable: "+err.Error(), "")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return unknown(err.Error(), "")
	}
	return unknown("query failed", err.Error())
}

func (e *environment) dockerCLI(ctx context.Context) Outcome {
	version, err := e.docker.ClientVersion(ctx)
	if err != nil {
		// the binary is what this check looks for, so its absence is a failure
		if errors.Is(err, exec.ErrNotFound) {
			return fail("docker binary not found", err.Error())
		}
		return queryFailed(err)
	}
	return pass("client %s", version)
}

// composeCLI looks for Compose, which the Airflow compose project needs for
// `docker-compose up airflow-init` and `docker-compose up -d`.
func (e *environment) composeCLI(ctx context.Context) Outcome {
	version, err := e.docker.ComposeVersion(ctx)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fail("neither docker compose nor "+docker.ComposeBinary+" found", err.Error())
		}
		var cmdErr *docker.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			return fail("compose did not run", cmdErr.Stderr)
		}
		return queryFailed(err)
	}
	return pass("compose %s", version)
}

func (e *environment) enginePipe(_ context.Context) Outcome {
	if scheme := e.cfg.Docker.HostScheme(); scheme != "" {
		return unknown("engine reached over "+scheme+", no local endpoint", "")
	}
	path := e.cfg.Docker.EnginePath
	if path == "" {
		return unknown("no engine endpoint configured", "")
	}

	_, err := e.deps.Stat(path)
	switch {
	case err == nil:
		return pass("%s exists", path)
	case errors.Is(err, os.ErrNotExist):
		return fail(path+" not found", missingEndpoint(path))
	}
	return unknown("cannot stat "+path, err.Error())
}

// missingEndpoint phrases the symptom the way the docker CLI reports it.
func missingEndpoint(path string) string {
	slashed := strings.ReplaceAll(path, `\`, "/")
	if strings.HasPrefix(slashed, "//./pipe/") {
		return fmt.Sprintf("open %s: The system cannot find the file specified", slashed)
	}
	return fmt.Sprintf("Cannot connect to the Docker daemon at unix://%s", path)
}

func (e *environment) engineInfo(ctx context.Context) Outcome {
	info, err := e.docker.Info(ctx)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return unknown("docker binary not found", "")
		}
		var cmdErr *docker.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			return fail("engine did not answer", cmdErr.Stderr)
		}
		return queryFailed(err)
	}

	if info.ServerVersion == "" {
		symptom := ""
		if len(info.ServerErrors) > 0 {
			symptom = info.ServerErrors[0]
		}
		return fail("engine did not answer", symptom)
	}

	detail := "server " + info.ServerVersion
	if info.OperatingSystem != "" {
		detail += fmt.Sprintf(" (%s, %s)", info.OperatingSystem, info.OSType)
	}
	return pass("%s", detail)
}

func (e *environment) desktopProcess(ctx context.Context) Outcome {
	if e.deps.GOOS != "windows" && e.deps.GOOS != "darwin" {
		return e.unsupported()
	}

	names, err := e.deps.Processes(ctx)
	if err != nil {
		return queryFailed(err)
	}
	for _, n := range names {
		lower := strings.ToLower(n)
		for _, want := range desktopProcessNames {
			if strings.HasPrefix(lower, want) {
				return pass("%s running", n)
			}
		}
	}
	return fail("no Docker Desktop process found", "")
}

var desktopProcessNames = []string{"docker desktop", "com.docker.backend"}

func (e *environment) airflowWeb(ctx context.Context) Outcome {
	if e.cfg.Airflow.URL == "" {
		return unknown("no Airflow URL configured", "")
	}

	health, err := e.airflow.Health(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return unknown(err.Error(), "")
		}
		return fail(e.airflow.URL()+" unreachable", err.Error())
	}
	if !health.Healthy() {
		return fail(fmt.Sprintf("metadatabase %q", health.Metadatabase.Status), "")
	}

	detail := "metadatabase healthy"
	if s := health.Scheduler.Status; s != "" {
		detail += ", scheduler " + s
	}
	return pass("%s", detail)
}

func (e *environment) airflowHome(_ context.Context) Outcome {
	home := e.cfg.Airflow.Home
	if home == "" {
		return unknown("AIRFLOW_HOME not set and no home directory", "")
	}

	fi, err := e.deps.Stat(home)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(home+" does not exist", "")
		}
		return unknown("cannot stat "+home, err.Error())
	}
	if !fi.IsDir() {
		return fail(home+" is not a directory", "")
	}

	dags := filepath.Join(home, "dags")
	if fi, err := e.deps.Stat(dags); err != nil || !fi.IsDir() {
		return fail(dags+" missing", "")
	}
	return pass("%s", home)
}

// readOutput runs a query and decodes its stdout; on error the decoded
// stderr is folded into the error text.
func readOutput(stdout, stderr []byte, err error) (string, error) {
	if err != nil {
		if msg := parser.FirstLine(parser.DecodeCommandOutput(stderr)); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		if msg := parser.FirstLine(parser.DecodeCommandOutput(stdout)); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return parser.DecodeCommandOutput(stdout), nil
}
