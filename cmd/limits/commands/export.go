package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/pipeline"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "한도 문서 내보내기",
	Long: `Derives the limits of a period and publishes them.

One document is published per shipper and gas day (--grouping day) or per
shipper for the whole period (--grouping period), in every requested format.
Shippers default to every shipper known to the database, formats and grouping
to EXPORT_FORMATS and EXPORT_GROUPING.

Example:
  go run ./cmd/limits export --from 2024-03-15
  go run ./cmd/limits export --from 2024-03-01 --to 2024-03-31 --shipper 12 --shipper 14
  go run ./cmd/limits export --from 2024-03-15 --format xlsx --dry-run --json`,
	RunE: runExport,
}

var (
	exportFrom     string
	exportTo       string
	exportShippers []int
	exportFormats  []string
	exportGrouping string
	exportDryRun   bool
	exportJSON     bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first gas day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last gas day (YYYY-MM-DD, default: --from)")
	exportCmd.Flags().IntSliceVar(&exportShippers, "shipper", nil, "shipper id (repeatable, default: all)")
	exportCmd.Flags().StringSliceVar(&exportFormats, "format", nil, "csv, xml, xlsx (repeatable)")
	exportCmd.Flags().StringVar(&exportGrouping, "grouping", "", "day or period")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "derive and render without uploading")
	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "print the run report as JSON")
	_ = exportCmd.MarkFlagRequired("from")
}

func buildExportRequest() (pipeline.Request, error) {
	from, err := calendar.Parse(exportFrom)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("invalid --from: %w", err)
	}
	to := from
	if exportTo != "" {
		if to, err = calendar.Parse(exportTo); err != nil {
			return pipeline.Request{}, fmt.Errorf("invalid --to: %w", err)
		}
	}

	req := pipeline.Request{
		Period:  contracts.Period{From: from, To: to},
		DryRun:  exportDryRun,
		Trigger: pipeline.TriggerCLI,
	}
	for _, s := range exportShippers {
		req.Shippers = append(req.Shippers, contracts.ShipperID(s))
	}
	if len(exportFormats) > 0 {
		req.Formats = contracts.ParseFormats(exportFormats)
	}
	if exportGrouping != "" {
		req.Grouping = contracts.ParseGrouping(exportGrouping)
	}

	return req, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	req, err := buildExportRequest()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.runner.Run(ctx, req)

	if exportJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
	} else {
		PrintReport(report)
	}

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if !report.Success() {
		return fmt.Errorf("export finished with %d failure(s)", len(report.Failures))
	}
	return nil
}
