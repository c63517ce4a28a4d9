package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helmcode/desktop-doctor/pkg/parser"
)

// MinWSL2Build is the first Windows 10 build (version 2004) that ships WSL 2.
const MinWSL2Build = 19041

const (
	serviceScript = `(Get-Service -Name com.docker.service -ErrorAction Stop).Status`
	virtScript    = `$p = (Get-CimInstance Win32_Processor | Select-Object -First 1).VirtualizationFirmwareEnabled; ` +
		`$h = (Get-CimInstance Win32_ComputerSystem).HypervisorPresent; "$p,$h"`
	featureScript  = `(Get-WindowsOptionalFeature -Online -FeatureName %s -ErrorAction Stop).State`
	defenderScript = `(Get-MpPreference -ErrorAction Stop).ExclusionPath`
)

func (e *environment) desktopService(ctx context.Context) Outcome {
	if e.deps.GOOS != "windows" {
		return e.unsupported()
	}

	out, err := readOutput(powerShell(ctx, e.deps.Runner, serviceScript))
	if err != nil {
		return queryFailed(err)
	}
	if status := parser.FirstLine(out); !strings.EqualFold(status, "Running") {
		return fail("com.docker.service is "+status, "")
	}
	return pass("com.docker.service running")
}

func (e *environment) virtualization(ctx context.Context) Outcome {
	switch e.deps.GOOS {
	case "windows":
		return e.virtualizationWindows(ctx)
	case "linux":
		return e.virtualizationLinux()
	}
	return e.unsupported()
}

// virtualizationWindows reads the firmware flag. Once a hypervisor is
// running Windows reports the flag as False, so HypervisorPresent counts
// as enabled too.
func (e *environment) virtualizationWindows(ctx context.Context) Outcome {
	out, err := readOutput(powerShell(ctx, e.deps.Runner, virtScript))
	if err != nil {
		return queryFailed(err)
	}

	firmware, hypervisor, _ := strings.Cut(parser.FirstLine(out), ",")
	fw, fwOK := parser.ParseBool(firmware)
	hv, hvOK := parser.ParseBool(hypervisor)
	switch {
	case hvOK && hv:
		return pass("hypervisor present")
	case fwOK && fw:
		return pass("enabled in firmware")
	case fwOK:
		return fail("disabled in firmware", "")
	}
	return unknown(fmt.Sprintf("unexpected output %q", out), "")
}

func (e *environment) virtualizationLinux() Outcome {
	data, err := e.deps.ReadFile("/proc/cpuinfo")
	if err != nil {
		return queryFailed(err)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		key, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || string(bytes.TrimSpace(key)) != "flags" {
			continue
		}
		for _, flag := range strings.Fields(string(value)) {
			if flag == "vmx" || flag == "svm" {
				return pass("cpu flag %s", flag)
			}
		}
		return fail("no vmx or svm cpu flag", "")
	}
	return unknown("no cpu flags in /proc/cpuinfo", "")
}

func (e *environment) optionalFeature(feature string) func(context.Context) Outcome {
	return func(ctx context.Context) Outcome {
		if e.deps.GOOS != "windows" {
			return e.unsupported()
		}

		out, err := readOutput(powerShell(ctx, e.deps.Runner, fmt.Sprintf(featureScript, feature)))
		if err != nil {
			return queryFailed(err)
		}
		state := parser.FirstLine(out)
		if !strings.EqualFold(state, "Enabled") {
			return fail(feature+" is "+state, "")
		}
		return pass("%s enabled", feature)
	}
}

func (e *environment) wslStatus(ctx context.Context) Outcome {
	if e.deps.GOOS != "windows" {
		return e.unsupported()
	}

	stdout, stderr, err := e.deps.Runner.Run(ctx, "wsl.exe", "--status")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return queryFailed(err)
		}
		// wsl.exe reports missing components on stdout with a non-zero exit
		msg := parser.DecodeCommandOutput(stdout)
		if msg == "" {
			msg = parser.DecodeCommandOutput(stderr)
		}
		if msg == "" {
			return queryFailed(err)
		}
		return fail("wsl --status failed", strings.ReplaceAll(msg, "\n", " "))
	}

	st := parser.ParseWSLStatus(parser.DecodeCommandOutput(stdout))
	switch st.DefaultVersion {
	case 2:
		if st.KernelVersion != "" {
			return pass("default version 2, kernel %s", st.KernelVersion)
		}
		return pass("default version 2")
	case 0:
		return unknown("default version not reported", "")
	}
	return fail(fmt.Sprintf("default version %d", st.DefaultVersion), "")
}

func (e *environment) windowsBuild(_ context.Context) Outcome {
	if e.deps.GOOS != "windows" {
		return e.unsupported()
	}

	build, err := e.deps.WindowsBuild()
	if err != nil {
		return queryFailed(err)
	}
	if build < MinWSL2Build {
		return fail(fmt.Sprintf("build %d, need %d", build, MinWSL2Build), "")
	}
	return pass("build %d", build)
}

func (e *environment) defenderExclusion(ctx context.Context) Outcome {
	if e.deps.GOOS != "windows" {
		return e.unsupported()
	}

	out, err := readOutput(powerShell(ctx, e.deps.Runner, defenderScript))
	if err != nil {
		return queryFailed(err)
	}
	// non-elevated shells get a placeholder instead of the list
	if strings.HasPrefix(out, "N/A") {
		return unknown("exclusions hidden without administrator rights", "")
	}

	install := normalizeWinPath(e.cfg.Docker.InstallDir)
	for _, line := range strings.Split(out, "\n") {
		excl := normalizeWinPath(line)
		if excl == "" {
			continue
		}
		if install == excl || strings.HasPrefix(install, excl+`\`) {
			return pass("%s excluded", strings.TrimSpace(line))
		}
	}
	return fail(e.cfg.Docker.InstallDir+" not excluded", "")
}

func normalizeWinPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "/", `\`))
	return strings.ToLower(strings.TrimRight(p, `\`))
}
