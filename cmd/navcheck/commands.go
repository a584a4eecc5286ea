package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/navcheck/internal/app"
	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/storage"
)

// errChecksFailed is returned by "run --strict" when any check failed or
// could not be evaluated.
var errChecksFailed = errors.New("validation checks failed")

type cli struct {
	out        io.Writer
	configPath string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:           "navcheck",
		Short:         "Validate fund NAV packs",
		Long:          `navcheck compares administrator snapshots of a fund against the KPI catalog and reports the exceptions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to navcheck.toml (default: $NAVCHECK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error or disabled")

	rootCmd.AddCommand(c.runCmd())
	rootCmd.AddCommand(c.metricsCmd())
	rootCmd.AddCommand(c.kpisCmd())
	rootCmd.AddCommand(c.importCmd())
	rootCmd.AddCommand(c.exportCmd())
	rootCmd.AddCommand(c.versionCmd())
	return rootCmd
}

// open builds the App with the CLI log level applied.
func (c *cli) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	level := func(cfg *common.Config) {
		if c.logLevel != "" {
			cfg.Logging.Level = c.logLevel
		}
	}
	return app.NewApp(ctx, c.configPath, append([]app.Option{level}, opts...)...)
}

// withCatalog switches KPI lookups to a YAML catalog file.
func withCatalog(path string) app.Option {
	return func(cfg *common.Config) {
		cfg.Storage.KPIs = storage.BackendCatalog
		cfg.Storage.Catalog.Path = path
	}
}

func (c *cli) runCmd() *cobra.Command {
	var (
		req        models.RunRequest
		workbookA  string
		workbookB  string
		kpiCatalog string
		strict     bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the validation checks for a fund",
		Long: `Run compares source A on date A with source B on date B. Workbooks given with
--workbook-a/--workbook-b are imported first, so the run sees the new data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var opts []app.Option
			if kpiCatalog != "" {
				opts = append(opts, withCatalog(kpiCatalog))
			}
			a, err := c.open(ctx, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			if workbookA != "" {
				if err := importSide(ctx, a, workbookA, req.Fund, req.SourceA, req.DateA); err != nil {
					return err
				}
				req.NoCache = true
			}
			if workbookB != "" {
				source, date := req.SourceB, req.DateB
				if source == "" {
					source = req.SourceA
				}
				if date == "" {
					date = req.DateA
				}
				if err := importSide(ctx, a, workbookB, req.Fund, source, date); err != nil {
					return err
				}
				req.NoCache = true
			}

			run, err := a.RunService.Run(ctx, req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(run); err != nil {
					return err
				}
			} else {
				fmt.Fprint(c.out, renderRun(run))
			}

			if strict && (run.Summary.Failed > 0 || run.Summary.Errors > 0) {
				return errChecksFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Fund, "fund", "", "Fund name")
	f.StringVar(&req.FundID, "fund-id", "", "Fund id used for threshold overrides")
	f.StringVar(&req.SourceA, "source-a", "", "Primary administrator source")
	f.StringVar(&req.SourceB, "source-b", "", "Comparison source (default: source A)")
	f.StringVar(&req.DateA, "date-a", "", "Primary valuation date (YYYY-MM-DD)")
	f.StringVar(&req.DateB, "date-b", "", "Comparison valuation date (default: date A)")
	f.StringSliceVar(&req.Categories, "category", nil, "Restrict the run to these KPI categories")
	f.StringVar(&req.Question, "question", "", "Free-text question, used as the cache key")
	f.BoolVar(&req.SkipFileChecks, "skip-file-checks", false, "Skip the data availability checks")
	f.BoolVar(&req.NoCache, "no-cache", false, "Ignore cached runs")
	f.StringVar(&workbookA, "workbook-a", "", "Workbook to import for source A before the run")
	f.StringVar(&workbookB, "workbook-b", "", "Workbook to import for source B before the run")
	f.StringVar(&kpiCatalog, "kpis", "", "Read KPIs and thresholds from this YAML catalog")
	f.BoolVar(&strict, "strict", false, "Exit with status 2 when any check fails or errors")
	f.BoolVar(&asJSON, "json", false, "Print the run as JSON")
	cmd.MarkFlagRequired("fund")
	cmd.MarkFlagRequired("source-a")
	cmd.MarkFlagRequired("date-a")
	return cmd
}

// importSide stores a workbook as the snapshot for one side of a run.
func importSide(ctx context.Context, a *app.App, path, fund, source, date string) error {
	writer, err := storage.Writer(a.Storage)
	if err != nil {
		return err
	}
	d, err := common.ParseDate(date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	_, err = app.ImportWorkbook(ctx, writer, a.Logger, path, fund, source, d)
	return err
}

func (c *cli) metricsCmd() *cobra.Command {
	var fund, source, date string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the computed metrics for one snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := common.ParseDate(date)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", date, err)
			}

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.RunService.Metrics(ctx, fund, source, d)
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, renderMetrics(fund, source, common.FormatDate(d), m))
			return nil
		},
	}

	cmd.Flags().StringVar(&fund, "fund", "", "Fund name")
	cmd.Flags().StringVar(&source, "source", "", "Administrator source")
	cmd.Flags().StringVar(&date, "date", "", "Valuation date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("fund")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("date")
	return cmd
}

func (c *cli) kpisCmd() *cobra.Command {
	var category, kpiCatalog string

	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "List the active KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var opts []app.Option
			if kpiCatalog != "" {
				opts = append(opts, withCatalog(kpiCatalog))
			}
			a, err := c.open(ctx, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			kpis, err := a.Storage.KPIStore().ActiveKPIs(ctx, category)
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, renderKPIs(kpis))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list KPIs in this category")
	cmd.Flags().StringVar(&kpiCatalog, "kpis", "", "Read KPIs from this YAML catalog instead of the database")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var workbook, kpiCatalog, fund, source, date string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a workbook snapshot or a KPI catalog into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workbook == "" && kpiCatalog == "" {
				return errors.New("nothing to import: pass --workbook and/or --kpis")
			}
			ctx := cmd.Context()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			writer, err := storage.Writer(a.Storage)
			if err != nil {
				return err
			}

			if kpiCatalog != "" {
				imported, skipped, err := app.ImportKPIsFromFile(ctx, writer, a.Logger, kpiCatalog)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, field("KPIs", fmt.Sprintf("%d imported, %d skipped", imported, skipped)))
			}

			if workbook != "" {
				d, err := common.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
				res, err := app.ImportWorkbook(ctx, writer, a.Logger, workbook, fund, source, d)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, field("Snapshot", fmt.Sprintf("%s / %s (%s)", strings.TrimSpace(fund), strings.TrimSpace(source), common.FormatDate(d))))
				fmt.Fprintln(c.out, field("Records", fmt.Sprintf("%d trial balance, %d portfolio, %d dividends", res.TrialBalance, res.Portfolio, res.Dividends)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workbook, "workbook", "", "Workbook to import (.xlsx, .xls or .csv)")
	cmd.Flags().StringVar(&kpiCatalog, "kpis", "", "YAML KPI catalog to copy into the database")
	cmd.Flags().StringVar(&fund, "fund", "", "Fund name for the workbook snapshot")
	cmd.Flags().StringVar(&source, "source", "", "Administrator source for the workbook snapshot")
	cmd.Flags().StringVar(&date, "date", "", "Valuation date for the workbook snapshot (YYYY-MM-DD)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var runID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored run as .xlsx, .png or .md",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var data []byte
			switch ext := strings.ToLower(filepath.Ext(out)); ext {
			case ".xlsx":
				data, err = a.ReportService.Workbook(ctx, runID)
			case ".png":
				data, err = a.ReportService.Chart(ctx, runID)
			case ".md":
				var md string
				md, err = a.ReportService.Markdown(ctx, runID)
				data = []byte(md)
			default:
				return fmt.Errorf("unsupported export format %q: use .xlsx, .png or .md", ext)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintln(c.out, field("Exported", out))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; the extension selects the format")
	cmd.MarkFlagRequired("run")
	cmd.MarkFlagRequired("out")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintf(c.out, "navcheck %s\n", common.GetFullVersion())
		},
	}
}
