package main

import (
	"fmt"
	"time"

	"github.com/open-mpi/mtt-reporter/pkg/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [key=value...]",
	Short: "Render one report to stdout",
	Long: `Render a report from reporter parameters given as key=value arguments,
for example:

  mtt-reporter report maf_phase=runs mef_cluster=All maf_success=Fail just_results=on`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params, err := report.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("parsing report parameters: %w", err)
	}

	params = params.WithDefaultDate(cfg.Report.DefaultDate)
	if cfg.Report.Debug {
		params.Debug = true
	}

	formatter, err := report.NewFormatter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	s, engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopStore(s)

	spec := report.NewQuerySpec(
		params, report.DefaultLevel(cfg.Report.Client), engine.Dialect(), time.Now().UTC(),
	)

	res, err := engine.Execute(ctx, spec)
	if err != nil {
		return fmt.Errorf("executing report: %w", err)
	}

	return formatter.Render(cmd.OutOrStdout(), spec, res, report.RenderOptions{})
}
