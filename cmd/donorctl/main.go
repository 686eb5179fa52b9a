// Command donorctl runs the donor pipeline once over local export files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/donorflow/internal/adapters/export"
	"github.com/okian/donorflow/internal/app"
	"github.com/okian/donorflow/internal/config"
	"github.com/okian/donorflow/internal/loadtest"
	"github.com/okian/donorflow/pkg/logger"
)

type runFlags struct {
	contacts  string
	codes     string
	donations string
	cost      float64
	joinKey   string
	joinMode  string
	out       string
	csv       string
	xlsx      string
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "donorctl",
		Short:         "Donor acquisition ROI from contact and donation exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv(config.EnvConfig, configPath); err != nil {
					return err
				}
			}
			return logger.InitWithWriter(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+config.EnvConfig+")")
	root.AddCommand(newRunCmd())
	root.AddCommand(newLoadCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join, clean, aggregate and simulate ROI over three CSV exports",
		Example: "  donorctl run --contacts contacts.csv --codes codes.csv --donations actblue.csv --cost 500\n" +
			"  donorctl run --contacts contacts.csv --donations actblue.csv --xlsx report.xlsx",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.contacts, "contacts", "", "contact export CSV")
	fl.StringVar(&f.codes, "codes", "", "activist code export CSV; the join is skipped when omitted")
	fl.StringVar(&f.donations, "donations", "", "donation export CSV")
	fl.Float64Var(&f.cost, "cost", 0, "acquisition cost; defaults to the configured cost")
	fl.StringVar(&f.joinKey, "join-key", "", "join key override")
	fl.StringVar(&f.joinMode, "join-mode", "", "InnerFromLeft or OuterIncludeRightOnly")
	fl.StringVarP(&f.out, "out", "o", "", "write the JSON result here instead of stdout")
	fl.StringVar(&f.csv, "csv", "", "also write donor summaries as CSV")
	fl.StringVar(&f.xlsx, "xlsx", "", "also write an XLSX report")
	_ = cmd.MarkFlagRequired("contacts")
	_ = cmd.MarkFlagRequired("donations")
	return cmd
}

func newLoadCmd() *cobra.Command {
	cfg := loadtest.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Submit generated runs to a donorflow server and verify the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := loadtest.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
			if st.Failed+st.Mismatched > 0 {
				return fmt.Errorf("%d runs failed, %d returned unexpected results", st.Failed, st.Mismatched)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	fl.IntVar(&cfg.Runs, "runs", cfg.Runs, "number of runs to submit")
	fl.IntVar(&cfg.Donors, "donors", cfg.Donors, "contacts per generated run")
	fl.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent submitters")
	fl.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP timeout and per-run wait limit")
	fl.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "delay between run status checks")
	return cmd
}

func runPipeline(ctx context.Context, stdout io.Writer, f runFlags) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	settings, err := app.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	req := app.Request{AcquisitionCost: f.cost, JoinKey: f.joinKey, JoinMode: f.joinMode}
	if req.Contacts, err = readFile(f.contacts); err != nil {
		return err
	}
	if f.codes != "" {
		if req.ActivistCodes, err = readFile(f.codes); err != nil {
			return err
		}
	}
	if req.Donations, err = readFile(f.donations); err != nil {
		return err
	}

	svc := app.New(app.WithSettings(settings), app.WithLogger(logger.Get().Named("donorctl")))
	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := writeTo(f.out, stdout, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}); err != nil {
		return err
	}
	if f.csv != "" {
		if err := writeTo(f.csv, nil, func(w io.Writer) error { return export.WriteCSV(w, res.Summaries) }); err != nil {
			return err
		}
	}
	if f.xlsx != "" {
		rep := export.Report{Summaries: res.Summaries, Stats: res.Stats, ROI: res.ROI}
		if err := writeTo(f.xlsx, nil, func(w io.Writer) error { return export.WriteXLSX(w, rep) }); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// writeTo writes to path, or to fallback when path is empty.
func writeTo(path string, fallback io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(fallback)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(fh); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
