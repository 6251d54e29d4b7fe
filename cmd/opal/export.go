package opal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/export"
	"github.com/halkwu/opal-card/internal/format"
	"github.com/halkwu/opal-card/internal/portal"
)

const (
	usernameEnvVar = "OPAL_USERNAME"
	passwordEnvVar = "OPAL_PASSWORD"
)

type exportFlags struct {
	Username string
	Password string
	Start    string
	End      string
	Format   string
	OutDir   string
	Headful  bool
}

var exportCmd = newExportCommand()

func newExportCommand() *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export card transactions between two dates",
		Long:  "Logs into the Opal portal, extracts the transaction ledger of every card, and writes it to a JSON artifact.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd, flags)
		},
		Example: `# Credentials via flags
opal export --username you@example.com --password secret --start 3/1/2025 --end 3/31/2025

# Credentials via environment (or a local .env)
export OPAL_USERNAME=you@example.com
export OPAL_PASSWORD=secret
opal export --start 3-1-2025`,
	}

	allFormats := strings.Join(lo.Map(format.All(), func(item format.FormatType, _ int) string {
		return string(item)
	}), ", ")

	cmd.Flags().StringVar(&flags.Username, "username", "", fmt.Sprintf("Portal username (alternative: %s environment variable)", usernameEnvVar))
	cmd.Flags().StringVar(&flags.Password, "password", "", fmt.Sprintf("Portal password (alternative: %s environment variable)", passwordEnvVar))
	cmd.Flags().StringVar(&flags.Start, "start", "", "Start date (M-D-YYYY or M/D/YYYY)")
	cmd.Flags().StringVar(&flags.End, "end", "", "End date (M-D-YYYY or M/D/YYYY)")
	cmd.Flags().StringVar(&flags.Format, "format", string(format.FormatTypeTable), fmt.Sprintf("Stdout format (options: %s)", allFormats))
	cmd.Flags().StringVar(&flags.OutDir, "out", ".", "Directory the JSON artifact is written to")
	cmd.Flags().BoolVar(&flags.Headful, "headful", false, "Run the browser visibly instead of headless")

	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, flags *exportFlags) error {
	logger := zerolog.Ctx(ctx)

	username := flags.Username
	if username == "" {
		username = os.Getenv(usernameEnvVar)
	}

	password := flags.Password
	if password == "" {
		password = os.Getenv(passwordEnvVar)
	}

	opts := export.Options{
		Username:     username,
		Password:     password,
		StartDateStr: flags.Start,
		EndDateStr:   flags.End,
		Headful:      flags.Headful,
	}

	scraper := portal.New(func(ctx context.Context, headful bool) (browser.Capability, error) {
		return browser.NewChrome(ctx, headful)
	})

	entries, err := export.Run(ctx, scraper, opts, func(event domain.ProgressEvent) {
		logger.Info().
			Int("progress.percent", event.Percent).
			Msg(event.Message)
	})
	if err != nil {
		return err
	}

	window, err := opts.Window(time.Now())
	if err != nil {
		return err
	}

	artifact, err := writeArtifact(flags.OutDir, entries, window)
	if err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	logger.Info().
		Int("entry.total", len(entries)).
		Str("artifact.path", artifact).
		Msg("wrote transactions artifact")

	formatter, err := format.NewFormatter(format.FormatType(flags.Format), cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("formatter: %w", err)
	}

	return format.WriteCollection(formatter, entries)
}

// writeArtifact writes the JSON artifact using the suggested filename
// convention and returns its path.
func writeArtifact(dir string, entries []domain.LedgerEntry, window domain.ScrapeWindow) (string, error) {
	path := filepath.Join(dir, export.SuggestedFilename(entries, window))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	formatter, err := format.NewFormatter(format.FormatTypeJSON, f)
	if err != nil {
		return "", err
	}

	if err := format.WriteCollection(formatter, entries); err != nil {
		return "", err
	}

	return path, nil
}
