package docker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/helmcode/desktop-doctor/pkg/parser"
)

// Runner executes an external command and returns its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Client queries the local container engine through the docker CLI.
type Client struct {
	runner Runner
	binary string
}

// CommandError carries what the CLI printed on stderr alongside the exit error.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

var (
	versionRe        = regexp.MustCompile(`(?i)docker version\s+([0-9][^\s,]*)`)
	composeVersionRe = regexp.MustCompile(`(?i)compose version\s+v?([0-9][^\s,]*)`)
)

// ComposeBinary is the standalone Compose v1 executable.
const ComposeBinary = "docker-compose"

// NewClient creates a client that invokes binary, usually "docker".
func NewClient(runner Runner, binary string) *Client {
	if binary == "" {
		binary = "docker"
	}
	return &Client{runner: runner, binary: binary}
}

// ClientVersion returns the CLI version without contacting the engine.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	stdout, stderr, err := c.run(ctx, "--version")
	if err != nil {
		return "", c.wrap(err, stderr, "--version")
	}

	out := parser.DecodeCommandOutput(stdout)
	if m := versionRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	if out == "" {
		return "", fmt.Errorf("docker --version printed nothing")
	}
	return parser.FirstLine(out), nil
}

// ComposeVersion returns the Compose version. The `docker compose` plugin is
// tried first, then the standalone docker-compose binary; when both fail the
// error of the standalone attempt is returned.
func (c *Client) ComposeVersion(ctx context.Context) (string, error) {
	stdout, _, err := c.run(ctx, "compose", "version")
	if err == nil {
		return composeVersion(stdout)
	}
	if ctx.Err() != nil {
		return "", commandError(c.binary, err, nil, "compose", "version")
	}

	stdout, stderr, err := c.runner.Run(ctx, ComposeBinary, "--version")
	if err != nil {
		return "", commandError(ComposeBinary, err, stderr, "--version")
	}
	return composeVersion(stdout)
}

func composeVersion(stdout []byte) (string, error) {
	out := parser.DecodeCommandOutput(stdout)
	if m := composeVersionRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	if out == "" {
		return "", fmt.Errorf("compose version printed nothing")
	}
	return parser.FirstLine(out), nil
}

// Info asks the engine for its status. The CLI exits non-zero when the
// engine is down but still prints JSON with the reason, so the document
// is preferred over the exit status.
func (c *Client) Info(ctx context.Context) (parser.DockerInfo, error) {
	args := []string{"info", "--format", "{{json .}}"}
	stdout, stderr, err := c.run(ctx, args...)

	info, perr := parser.ParseDockerInfo(stdout)
	if perr == nil {
		return info, nil
	}
	if err != nil {
		return parser.DockerInfo{}, c.wrap(err, stderr, args...)
	}
	return parser.DockerInfo{}, fmt.Errorf("failed to read docker info: %w", perr)
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	return c.runner.Run(ctx, c.binary, args...)
}

// wrap keeps err reachable through errors.Is so callers can tell a missing
// binary or an expired context apart from an engine failure.
func (c *Client) wrap(err error, stderr []byte, args ...string) error {
	return commandError(c.binary, err, stderr, args...)
}

func commandError(name string, err error, stderr []byte, args ...string) error {
	return &CommandError{
		Args:   append([]string{name}, args...),
		Stderr: parser.FirstLine(parser.DecodeCommandOutput(stderr)),
		Err:    err,
	}
}
