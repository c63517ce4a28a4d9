package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/helmcode/desktop-doctor/pkg/analyzer"
	"github.com/helmcode/desktop-doctor/pkg/config"
	"github.com/helmcode/desktop-doctor/pkg/formatter"
	"github.com/helmcode/desktop-doctor/pkg/probe"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath   string
	outputFormat string
	verbose      bool
)

// newProber is replaced in tests.
var newProber = func(cfg *config.Config, logger *zap.Logger) *probe.Prober {
	return probe.New(cfg, probe.DefaultDeps(), logger)
}

func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [SYMPTOM...]",
		Short: "Check the Docker Desktop, WSL 2 and Airflow setup",
		Long: `Run a fixed set of read-only checks against the local machine (docker CLI,
Compose, engine pipe, Docker Desktop service, firmware virtualization, WSL 2 features,
Defender exclusions, Airflow web UI) and explain what is wrong.

Error messages passed as arguments are classified against the same catalogue
of known problems. The command exits 0 whatever it finds.

Examples:
  # Check the local machine
  desktop-doctor diagnose

  # Explain an error message you got from docker
  desktop-doctor diagnose "open //./pipe/dockerDesktopLinuxEngine: The system cannot find the file specified."

  # Machine-readable report
  desktop-doctor diagnose -o json`,
		RunE: runDiagnose,
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatHuman,
		fmt.Sprintf("Output format (%s)", strings.Join(formatter.Formats, ", ")))
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every check to stderr")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/"+config.DefaultFileName+")")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if !formatter.ValidFormat(outputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %s)", outputFormat, strings.Join(formatter.Formats, ", "))
	}

	// a missing .env is normal
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := probe.ValidateSkip(cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	human := outputFormat == formatter.FormatHuman
	if human {
		if err := printHeader(out, args); err != nil {
			return err
		}
	}

	prober := newProber(cfg, logger)

	// the spinner goes to stderr so piped reports stay clean
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	prober.OnCheck = func(c probe.Check) {
		s.Lock()
		s.Suffix = " Checking " + strings.ToLower(c.Title) + "..."
		s.Unlock()
	}
	if human && !verbose {
		s.Start()
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report := analyzer.New(prober, logger).Diagnose(ctx, args)
	s.Stop()

	if err := formatter.DisplayReport(out, report, outputFormat); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func printHeader(w io.Writer, symptoms []string) error {
	cyan := color.New(color.FgCyan, color.Bold)
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := cyan.Fprintln(w, "🩺 Docker Desktop Doctor"); err != nil {
		return err
	}
	for _, s := range symptoms {
		if _, err := fmt.Fprintf(w, "📝 Symptom: %s\n", s); err != nil {
			return err
		}
	}
	return nil
}
