package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	coreConfig "wacc_simulator/pkg/core/config"
	"wacc_simulator/pkg/core/logger"
	"wacc_simulator/pkg/core/pipeline"
	"wacc_simulator/pkg/core/store"
	"wacc_simulator/pkg/core/utils"
	"wacc_simulator/pkg/core/wacc"
)

type globalOpts struct {
	configPath string
	dataPath   string
	sourceKind string
	logLevel   string
}

type simulateOpts struct {
	sector     string
	percentile int
	samples    int
	seed       uint64
	workers    int
	weights    string
	bins       int
	jsonPath   string
	csvPath    string
	hist       bool
}

func main() {
	var g globalOpts

	root := &cobra.Command{
		Use:   "wacc",
		Short: "Monte Carlo WACC estimator",
		Long: `wacc estimates the real and nominal weighted average cost of capital of a
sector by Monte Carlo simulation over historical macro inputs.

Inputs are three tables (fixed, annual, sectors) read from an .xlsx workbook,
a directory of CSV files, a YAML/JSON/HJSON document or Postgres.

Examples:
  wacc sectors --data inputs.xlsx
  wacc simulate --data inputs.xlsx --sector Energia --percentile 84 --seed 42 --hist
  wacc simulate --data ./tables --sector Saneamento --json out.json --csv samples.csv`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default config/simulator.yaml)")
	root.PersistentFlags().StringVar(&g.dataPath, "data", "", "input workbook, CSV directory or document")
	root.PersistentFlags().StringVar(&g.sourceKind, "source", "", "input kind: xlsx, csv, document or postgres (default: from --data)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (default from config)")

	root.AddCommand(simulateCmd(&g), sectorsCmd(&g), guidanceCmd(&g), importCmd(&g))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// setup loads the config with flag overrides and opens the input source.
func (g *globalOpts) setup(ctx context.Context) (*coreConfig.Config, *pipeline.Orchestrator, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	// The CLI only logs warnings unless a level is asked for
	if g.logLevel == "" && cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	src, closeSource, err := pipeline.OpenSource(ctx, cfg.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, pipeline.NewOrchestrator(src, nil, log), closeSource, nil
}

// loadConfig applies the persistent flags on top of file and environment.
func (g *globalOpts) loadConfig() (*coreConfig.Config, error) {
	return coreConfig.Load(g.configPath,
		coreConfig.WithDataPath(g.dataPath),
		coreConfig.WithDataSource(g.sourceKind),
		coreConfig.WithLogLevel(g.logLevel),
	)
}

func simulateCmd(g *globalOpts) *cobra.Command {
	var o simulateOpts
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the simulation for one sector",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, orch, closeSource, err := g.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeSource()

			// Flags win over config defaults only when given
			run, err := cfg.Simulation.RunConfig(o.sector)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("percentile") {
				run.Percentile = o.percentile
			}
			if flags.Changed("samples") {
				run.SampleCount = o.samples
			}
			if flags.Changed("seed") {
				run.Source = wacc.SeededSource{Seed: o.seed}
			}
			if flags.Changed("workers") {
				run.Workers = o.workers
			}
			if flags.Changed("bins") {
				run.DensityBins = o.bins
			}
			if flags.Changed("weights") {
				if run.WeightPolicy, err = wacc.ParseWeightPolicy(o.weights); err != nil {
					return err
				}
			}

			res, err := orch.Run(cmd.Context(), run)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, o)
		},
	}
	cmd.Flags().StringVar(&o.sector, "sector", "", "sector identifier (see wacc sectors)")
	cmd.MarkFlagRequired("sector")
	cmd.Flags().IntVarP(&o.percentile, "percentile", "p", 69, "percentile of the real WACC to report [0..100]")
	cmd.Flags().IntVarP(&o.samples, "samples", "n", 30000, "number of Monte Carlo samples")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "seed for a reproducible run")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "sampling workers (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&o.weights, "weights", "passthrough", "weight-sum policy: passthrough, normalize or reject")
	cmd.Flags().IntVar(&o.bins, "bins", wacc.DefaultDensityBins, "histogram bins (-1 disables the density)")
	cmd.Flags().StringVar(&o.jsonPath, "json", "", "write results to JSON file")
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write per-sample rows to CSV file")
	cmd.Flags().BoolVar(&o.hist, "hist", false, "print a text histogram of the real WACC")
	return cmd
}

func sectorsCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "List the sectors available in the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, orch, closeSource, err := g.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeSource()

			tables, err := orch.Tables(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range tables.SectorIDs() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func guidanceCmd(g *globalOpts) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "guidance",
		Short: "Print which percentile to use and when",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			md := wacc.GuidanceMarkdown(cfg.Guidance)
			if html {
				if md, err = utils.RenderMarkdown(md); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "render the table as HTML")
	return cmd
}

func importCmd(g *globalOpts) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the input tables from --data into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.sourceKind == pipeline.SourcePostgres {
				return fmt.Errorf("import reads a file source; drop --source postgres")
			}
			_, orch, closeSource, err := g.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeSource()

			pool, err := store.Connect(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := store.NewTableRepo(pool)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			tables, err := orch.Import(cmd.Context(), repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d annual rows and %d sectors\n", len(tables.Annual), len(tables.Sectors))
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres DSN (default DATABASE_URL)")
	return cmd
}
