package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/open-mpi/mtt-reporter/pkg/publish"
	"github.com/open-mpi/mtt-reporter/pkg/report"
	"github.com/spf13/cobra"
)

var (
	summaryWindow      string
	summaryPublish     bool
	summaryReporterURL string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Render the summary digest",
	Long: `Run the summary presets for the last day or week and write the digest
page to stdout, or publish it to the configured local directory and S3 bucket.`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryWindow, "window", string(report.WindowDay),
		"time frame of the digest (day, week)")
	summaryCmd.Flags().BoolVar(&summaryPublish, "publish", false,
		"publish the digest instead of writing it to stdout")
	summaryCmd.Flags().StringVar(&summaryReporterURL, "reporter-url", "",
		"link to the interactive reporter shown in the digest header")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	presets, err := report.LoadPresets(cfg.Report.Summary.Presets)
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter()
	if err != nil {
		return err
	}

	var publishers []publish.Publisher

	if summaryPublish {
		publishers, err = publish.New(log, &cfg.Publish)
		if err != nil {
			return err
		}

		if len(publishers) == 0 {
			return fmt.Errorf("--publish given but no publisher is enabled in the config")
		}
	}

	ctx := cmd.Context()

	s, engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopStore(s)

	now := time.Now().UTC()
	window := report.ParseWindow(summaryWindow)

	digester := report.NewDigester(
		log, engine, presets, cfg.Report.Client, cfg.Report.Summary.Concurrency,
	)

	digest, err := digester.Run(ctx, window, now)
	if err != nil {
		return fmt.Errorf("running summary: %w", err)
	}

	var buf bytes.Buffer
	if err := formatter.RenderDigest(&buf, digest, summaryReporterURL); err != nil {
		return err
	}

	if !summaryPublish {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())

		return err
	}

	name := publish.DigestName(string(window), now.Format("2006-01-02"))

	for _, p := range publishers {
		location, err := p.Publish(ctx, name, buf.Bytes())
		if err != nil {
			return fmt.Errorf("publishing summary: %w", err)
		}

		log.WithField("location", location).Info("Summary published")
	}

	return nil
}
