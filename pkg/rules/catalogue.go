package rules

import "github.com/helmcode/desktop-doctor/pkg/model"

// UnknownCause is reported when no catalogue entry matches a symptom.
const UnknownCause = "unknown cause"

const (
	causeEngineDown      = "engine not running"
	causeNoVirt          = "hardware virtualization disabled"
	causeNoClient        = "container engine client not installed"
	causeNoCompose       = "Docker Compose not installed"
	causeNoWSL           = "Linux subsystem feature not installed"
	causeNoVMPlatform    = "virtual machine platform feature not installed"
	causeOldKernel       = "WSL2 kernel outdated"
	causeOldBuild        = "Windows build too old for WSL2"
	causeBlocked         = "engine files blocked by antivirus or permissions"
	causeAirflowDown     = "Airflow web server not running"
	causeAirflowNoHome   = "Airflow home directory missing"
	causeServiceStopped  = "Docker Desktop service stopped"
	causeDesktopNotShown = "Docker Desktop application not running"
	causeNotElevated     = "diagnostic needs administrator rights"
)

const (
	startEngine    = "start the engine and retry"
	enableVirt     = "enable virtualization in firmware settings"
	installWSL     = "run `wsl --install` from an elevated PowerShell and reboot"
	updateWSL      = "run `wsl --update` and restart Docker Desktop"
	installDocker  = "install Docker Desktop from https://docs.docker.com/desktop/install/windows-install/"
	installCompose = "install Docker Desktop, which ships the `docker compose` plugin, or the standalone docker-compose binary"
)

// catalogue is the fixed symptom table. Patterns are matched as
// case-insensitive substrings and are disjoint, so order only matters for
// documentation.
var catalogue = []model.Rule{
	{
		ID:      "engine-pipe-missing",
		Pattern: "open //./pipe/dockerDesktopLinuxEngine: The system cannot find the file specified",
		Cause:   causeEngineDown,
		Remediation: []string{
			startEngine,
			"open Docker Desktop and wait until the status bar shows \"Engine running\"",
			"if it never starts, run `wsl --shutdown` and launch Docker Desktop again",
		},
	},
	{
		ID:      "virtualization-not-detected",
		Pattern: "Virtualization support not detected",
		Cause:   causeNoVirt,
		Remediation: []string{
			enableVirt,
			"reboot into BIOS/UEFI and turn on Intel VT-x or AMD-V (SVM)",
			"confirm with Task Manager > Performance > CPU: \"Virtualization: Enabled\"",
		},
	},
	{
		ID:          "unix-daemon-unreachable",
		Pattern:     "Cannot connect to the Docker daemon",
		Cause:       causeEngineDown,
		Remediation: []string{startEngine, "on Linux run `sudo systemctl start docker`"},
	},
	{
		ID:          "client-not-found",
		Pattern:     `"docker": executable file not found`,
		Cause:       causeNoClient,
		Remediation: []string{installDocker, "make sure the docker binary directory is on PATH"},
	},
	{
		ID:          "client-not-recognized",
		Pattern:     "'docker' is not recognized",
		Cause:       causeNoClient,
		Remediation: []string{installDocker, "open a new terminal so PATH changes are picked up"},
	},
	{
		ID:          "compose-not-found",
		Pattern:     `"docker-compose": executable file not found`,
		Cause:       causeNoCompose,
		Remediation: []string{installCompose, "or run the Airflow project with `docker compose` instead of `docker-compose`"},
	},
	{
		ID:          "compose-not-recognized",
		Pattern:     "'docker-compose' is not recognized",
		Cause:       causeNoCompose,
		Remediation: []string{installCompose, "or run the Airflow project with `docker compose` instead of `docker-compose`"},
	},
	{
		ID:          "compose-plugin-missing",
		Pattern:     "'compose' is not a docker command",
		Cause:       causeNoCompose,
		Remediation: []string{installCompose, "or use the standalone `docker-compose` command"},
	},
	{
		ID:          "wsl-incomplete",
		Pattern:     "WSL 2 installation is incomplete",
		Cause:       causeNoWSL,
		Remediation: []string{installWSL},
	},
	{
		ID:      "wsl-component-disabled",
		Pattern: "optional component is not enabled",
		Cause:   causeNoWSL,
		Remediation: []string{
			installWSL,
			"or enable it with `dism.exe /online /enable-feature /featurename:Microsoft-Windows-Subsystem-Linux /all /norestart`",
		},
	},
	{
		ID:          "wsl-kernel-update",
		Pattern:     "requires an update to its kernel component",
		Cause:       causeOldKernel,
		Remediation: []string{updateWSL},
	},
	{
		ID:      "access-denied",
		Pattern: "Access is denied",
		Cause:   causeBlocked,
		Remediation: []string{
			"add C:\\Program Files\\Docker and %LOCALAPPDATA%\\Docker as Microsoft Defender exclusions",
			"run the failing command from an elevated terminal",
		},
	},
	{
		ID:          "needs-elevation",
		Pattern:     "requires elevation",
		Cause:       causeNotElevated,
		Remediation: []string{"re-run desktop-doctor from a terminal opened with \"Run as administrator\""},
	},
	{
		ID:          "airflow-refused",
		Pattern:     ":8080: connect: connection refused",
		Cause:       causeAirflowDown,
		Remediation: airflowStart,
	},
	{
		ID:          "airflow-refused-windows",
		Pattern:     "target machine actively refused it",
		Cause:       causeAirflowDown,
		Remediation: airflowStart,
	},

	// Derived symptoms, emitted as "<check>: fail" when a check fails
	// without a more specific message.
	{ID: "check-docker-cli", Pattern: "docker-cli: fail", Cause: causeNoClient, Remediation: []string{installDocker}},
	{ID: "check-compose-cli", Pattern: "compose-cli: fail", Cause: causeNoCompose, Remediation: []string{installCompose}},
	{ID: "check-engine-pipe", Pattern: "engine-pipe: fail", Cause: causeEngineDown, Remediation: []string{startEngine}},
	{ID: "check-engine-info", Pattern: "engine-info: fail", Cause: causeEngineDown, Remediation: []string{startEngine, "run `docker info` and read the server error"}},
	{ID: "check-desktop-process", Pattern: "desktop-process: fail", Cause: causeDesktopNotShown, Remediation: []string{"launch Docker Desktop from the Start menu", startEngine}},
	{ID: "check-desktop-service", Pattern: "desktop-service: fail", Cause: causeServiceStopped, Remediation: []string{"run `Start-Service com.docker.service` from an elevated PowerShell", startEngine}},
	{ID: "check-virtualization", Pattern: "virtualization: fail", Cause: causeNoVirt, Remediation: []string{enableVirt}},
	{ID: "check-wsl-feature", Pattern: "wsl-feature: fail", Cause: causeNoWSL, Remediation: []string{installWSL}},
	{ID: "check-vm-platform", Pattern: "vm-platform: fail", Cause: causeNoVMPlatform, Remediation: []string{"run `dism.exe /online /enable-feature /featurename:VirtualMachinePlatform /all /norestart` and reboot"}},
	{ID: "check-wsl-status", Pattern: "wsl-status: fail", Cause: causeOldKernel, Remediation: []string{updateWSL, "run `wsl --set-default-version 2`"}},
	{ID: "check-windows-build", Pattern: "windows-build: fail", Cause: causeOldBuild, Remediation: []string{"update Windows to version 2004 (build 19041) or later"}},
	{ID: "check-defender-exclusion", Pattern: "defender-exclusion: fail", Cause: causeBlocked, Remediation: []string{"run `Add-MpPreference -ExclusionPath 'C:\\Program Files\\Docker'` from an elevated PowerShell"}},
	{ID: "check-airflow-web", Pattern: "airflow-web: fail", Cause: causeAirflowDown, Remediation: airflowStart},
	{ID: "check-airflow-home", Pattern: "airflow-home: fail", Cause: causeAirflowNoHome, Remediation: []string{"create it with `airflow db init` (AIRFLOW_HOME defaults to ~/airflow)", "copy your DAG files into $AIRFLOW_HOME/dags"}},
}

var airflowStart = []string{
	"standalone: run `airflow standalone` (or `docker run -p 8080:8080 apache/airflow standalone`), then log in at http://localhost:8080 with admin / admin",
	"compose project: run `docker-compose up airflow-init` once, then `docker-compose up -d`, then log in at http://localhost:8080 with admin / admin123",
}

// Catalogue returns a copy of the built-in rules.
func Catalogue() []model.Rule {
	out := make([]model.Rule, len(catalogue))
	for i, r := range catalogue {
		r.Remediation = append([]string(nil), r.Remediation...)
		out[i] = r
	}
	return out
}
