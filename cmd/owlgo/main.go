package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/owlplanner/owlgo/internal/config"
	"github.com/owlplanner/owlgo/internal/output"
	"github.com/owlplanner/owlgo/internal/plan"
	"github.com/owlplanner/owlgo/internal/rates"
	"github.com/spf13/cobra"
)

// logSink bridges the per-plan buffered logger to the standard log package.
type logSink struct{}

func (logSink) Printf(format string, args ...any) { log.Printf(format, args...) }

var (
	csvOut  string
	timeout time.Duration
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "owlgo",
		Short: "Tax-aware retirement drawdown optimization",
		Long: `owlgo computes multi-year retirement drawdown plans by linear
programming: withdrawals, Roth conversions, taxes, and Medicare premiums,
iterated to self-consistency.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "wall-clock budget per plan solve")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "flush plan logs to stderr")

	runCmd := &cobra.Command{
		Use:   "run <case-file>",
		Short: "Solve a single case",
		Args:  cobra.ExactArgs(1),
		RunE:  runCase,
	}
	runCmd.Flags().StringVar(&csvOut, "csv", "", "write per-year series to a CSV file")

	mcCmd := &cobra.Command{
		Use:   "mc <case-file> <runs>",
		Short: "Monte Carlo over independent rate draws",
		Args:  cobra.ExactArgs(2),
		RunE:  runMC,
	}

	histCmd := &cobra.Command{
		Use:   "historical <case-file> <from> <to>",
		Short: "Sweep historical starting years",
		Args:  cobra.ExactArgs(3),
		RunE:  runHistorical,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List rate models and their parameters",
		RunE:  listModels,
	}

	root.AddCommand(runCmd, mcCmd, histCmd, modelsCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func interruptibleContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func loadCase(path string) (*plan.Plan, plan.Objective, plan.Options, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", plan.Options{}, err
	}
	p, objective, opts, err := config.ToPlan(cfg)
	if err != nil {
		return nil, "", plan.Options{}, err
	}
	opts.Timeout = timeout
	return p, objective, opts, nil
}

func runCase(cmd *cobra.Command, args []string) error {
	ctx, stop := interruptibleContext()
	defer stop()

	p, objective, opts, err := loadCase(args[0])
	if err != nil {
		return err
	}

	if err := p.Solve(ctx, objective, opts); err != nil {
		return err
	}
	if verbose {
		p.Logger().Flush(logSink{})
	}

	fmt.Print(output.ConsoleReport(p))

	if csvOut != "" && p.CaseStatus == plan.StatusSolved {
		data, err := output.CSVSeries(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(csvOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Per-year series written to %s\n", csvOut)
	}
	if p.CaseStatus != plan.StatusSolved {
		return fmt.Errorf("case ended with status %s", p.CaseStatus)
	}
	return nil
}

func runMC(cmd *cobra.Command, args []string) error {
	ctx, stop := interruptibleContext()
	defer stop()

	p, objective, opts, err := loadCase(args[0])
	if err != nil {
		return err
	}
	var n int
	if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil || n < 1 {
		return fmt.Errorf("runs must be a positive integer, got %q", args[1])
	}

	dist, err := p.RunMC(ctx, objective, opts, n)
	if err != nil {
		return err
	}
	if verbose {
		p.Logger().Flush(logSink{})
	}
	fmt.Print(output.DistributionReport(fmt.Sprintf("MONTE CARLO (%d runs)", n), dist))
	return nil
}

func runHistorical(cmd *cobra.Command, args []string) error {
	ctx, stop := interruptibleContext()
	defer stop()

	p, objective, opts, err := loadCase(args[0])
	if err != nil {
		return err
	}
	var frm, to int
	if _, err := fmt.Sscanf(args[1], "%d", &frm); err != nil {
		return fmt.Errorf("bad from year %q", args[1])
	}
	if _, err := fmt.Sscanf(args[2], "%d", &to); err != nil {
		return fmt.Errorf("bad to year %q", args[2])
	}

	dist, err := p.RunHistoricalRange(ctx, objective, opts, frm, to)
	if err != nil {
		return err
	}
	if verbose {
		p.Logger().Flush(logSink{})
	}
	fmt.Print(output.DistributionReport(fmt.Sprintf("HISTORICAL RANGE %d-%d", frm, to), dist))
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	methods := rates.ListMethods()
	sort.Strings(methods)
	for _, m := range methods {
		meta, err := rates.GetMetadata(m)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n    %s\n", meta.Method, meta.Description)
		printParams := func(kind string, params map[string]rates.ParamSpec) {
			if len(params) == 0 {
				return
			}
			var names []string
			for name := range params {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("    %s:\n", kind)
			for _, name := range names {
				spec := params[name]
				fmt.Printf("      %-16s %s", name, spec.Type)
				if spec.Description != "" {
					fmt.Printf(" — %s", spec.Description)
				}
				fmt.Println()
			}
		}
		printParams("required", meta.Required)
		printParams("optional", meta.Optional)
		fmt.Println()
	}
	return nil
}
