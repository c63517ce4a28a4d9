package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/helmcode/desktop-doctor/pkg/airflow"
	"github.com/helmcode/desktop-doctor/pkg/config"
	"github.com/helmcode/desktop-doctor/pkg/docker"
	"github.com/helmcode/desktop-doctor/pkg/model"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by platform queries that do not exist on the
// running OS.
var ErrUnsupported = errors.New("not supported on this platform")

// Outcome is what a single check observed.
type Outcome struct {
	Status  model.Status
	Detail  string
	Symptom string
}

// Check is one named, read-only environment query.
type Check struct {
	Name  string
	Title string
	Run   func(ctx context.Context) Outcome
}

// Deps are the system touch points checks go through. Tests replace them.
type Deps struct {
	GOOS         string
	Runner       Runner
	Stat         func(string) (fs.FileInfo, error)
	ReadFile     func(string) ([]byte, error)
	Processes    func(ctx context.Context) ([]string, error)
	WindowsBuild func() (int, error)
	HTTPClient   *http.Client
}

// DefaultDeps wires checks to the real operating system.
func DefaultDeps() Deps {
	return Deps{
		GOOS:         runtime.GOOS,
		Runner:       ExecRunner{},
		Stat:         os.Stat,
		ReadFile:     os.ReadFile,
		Processes:    processNames,
		WindowsBuild: windowsBuild,
		HTTPClient:   &http.Client{},
	}
}

// Prober runs every check in order and collects all results.
type Prober struct {
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger

	// OnCheck, when set, is called before each check starts.
	OnCheck func(c Check)
}

// New builds a prober with the standard check set, minus any the config skips.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	env := &environment{
		cfg:     cfg,
		deps:    deps,
		docker:  docker.NewClient(deps.Runner, cfg.Docker.Binary),
		airflow: airflow.NewClient(cfg.Airflow.URL, deps.HTTPClient),
	}

	var checks []Check
	for _, c := range env.checks() {
		if cfg.Skipped(c.Name) {
			logger.Debug("Skipping check", zap.String("check", c.Name))
			continue
		}
		checks = append(checks, c)
	}
	return NewWithChecks(checks, cfg.Probe.Timeout, logger)
}

// CheckNames lists every standard check in run order.
func CheckNames() []string {
	var names []string
	for _, c := range (&environment{}).checks() {
		names = append(names, c.Name)
	}
	return names
}

// ValidateSkip rejects probe.skip entries that name no check, so a typo
// does not silently leave a check enabled.
func ValidateSkip(cfg *config.Config) error {
	names := CheckNames()
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, s := range cfg.Probe.Skip {
		if !known[s] {
			return fmt.Errorf("%w: probe.skip names unknown check %q (known: %s)",
				config.ErrInvalid, s, strings.Join(names, ", "))
		}
	}
	return nil
}

func NewWithChecks(checks []Check, timeout time.Duration, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &Prober{checks: checks, timeout: timeout, logger: logger}
}

func (p *Prober) Checks() []Check {
	return append([]Check(nil), p.checks...)
}

// Run executes the checks sequentially. A failing, hanging or panicking
// check yields a result for itself and never stops the ones after it.
func (p *Prober) Run(ctx context.Context) []model.CheckResult {
	results := make([]model.CheckResult, 0, len(p.checks))
	for _, c := range p.checks {
		if p.OnCheck != nil {
			p.OnCheck(c)
		}
		results = append(results, p.runOne(ctx, c))
	}
	return results
}

func (p *Prober) runOne(ctx context.Context, c Check) (res model.CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	res = model.CheckResult{Name: c.Name, Title: c.Title}

	defer func() {
		if r := recover(); r != nil {
			res.Status = model.StatusUnknown
			res.Detail = fmt.Sprintf("check panicked: %v", r)
		}
		res.Duration = time.Since(start)
		p.logger.Debug("Check finished",
			zap.String("check", c.Name),
			zap.String("status", string(res.Status)),
			zap.Duration("duration", res.Duration),
			zap.String("detail", res.Detail))
	}()

	out := c.Run(ctx)
	if out.Status == "" {
		out.Status = model.StatusUnknown
	}
	if out.Status != model.StatusPass && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out = Outcome{Status: model.StatusUnknown, Detail: fmt.Sprintf("timed out after %s", p.timeout)}
	}

	res.Status = out.Status
	res.Detail = out.Detail
	res.Symptom = out.Symptom
	return res
}
