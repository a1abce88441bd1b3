// Package pipeline wires input sources to the simulation engine for the CLI.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"wacc_simulator/pkg/core/ingest"
	"wacc_simulator/pkg/core/logger"
	"wacc_simulator/pkg/core/metrics"
	"wacc_simulator/pkg/core/wacc"
)

// TableWriter stores a full set of input tables, e.g. store.TableRepo.
type TableWriter interface {
	Replace(ctx context.Context, tables wacc.Tables) error
}

// Orchestrator runs simulations against one source.
type Orchestrator struct {
	source  ingest.Source
	metrics *metrics.Recorder
	log     *logger.Logger
}

// NewOrchestrator creates an orchestrator; rec and log may be nil.
func NewOrchestrator(src ingest.Source, rec *metrics.Recorder, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{source: src, metrics: rec, log: log.With("pipeline")}
}

// Tables loads the input tables once.
func (o *Orchestrator) Tables(ctx context.Context) (wacc.Tables, error) {
	start := time.Now()
	tables, err := o.source.Load(ctx)
	o.metrics.RecordLoad(o.source.Name(), time.Since(start).Seconds())
	if err != nil {
		return wacc.Tables{}, err
	}
	o.log.Debug("tables loaded",
		logger.String("source", o.source.Name()),
		logger.Int("annual_rows", len(tables.Annual)),
		logger.Int("sectors", len(tables.Sectors)),
	)
	return tables, nil
}

// Run loads the tables and runs one simulation for cfg.SectorID.
func (o *Orchestrator) Run(ctx context.Context, cfg wacc.SimulationConfig) (*wacc.SimulationResult, error) {
	// 1. Validate before touching the source
	if err := cfg.Validate(); err != nil {
		o.metrics.RecordRun(cfg.SectorID, metrics.OutcomeOf(err), 0, 0)
		return nil, err
	}

	// 2. Load
	tables, err := o.Tables(ctx)
	if err != nil {
		o.metrics.RecordRun(cfg.SectorID, metrics.OutcomeOf(err), 0, 0)
		return nil, err
	}

	// 3. Run
	start := time.Now()
	res, err := wacc.Run(ctx, tables, cfg)
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.RecordRun(cfg.SectorID, metrics.OutcomeOf(err), elapsed.Seconds(), 0)
		o.log.Warn("simulation failed", logger.String("sector", cfg.SectorID), logger.Error(err))
		return nil, err
	}
	o.metrics.RecordRun(res.SectorID, metrics.OutcomeOK, elapsed.Seconds(), cfg.SampleCount)
	o.metrics.RecordPercentile(res.SectorID, res.PercentileValue)
	o.log.Info("simulation complete",
		logger.String("run_id", res.RunID),
		logger.String("sector", res.SectorID),
		logger.Float("percentile_value", res.PercentileValue),
		logger.Duration("elapsed", elapsed),
		logger.Strings("warnings", res.Parameters.Warnings),
	)
	return res, nil
}

// Import copies the tables of the orchestrator's source into dst.
// Every sector must resolve before anything is written.
func (o *Orchestrator) Import(ctx context.Context, dst TableWriter) (wacc.Tables, error) {
	tables, err := o.Tables(ctx)
	if err != nil {
		return wacc.Tables{}, err
	}
	for _, sector := range tables.SectorIDs() {
		if _, err := wacc.Resolve(tables, sector, wacc.WeightPassthrough); err != nil {
			return wacc.Tables{}, fmt.Errorf("sector %s: %w", sector, err)
		}
	}
	if err := dst.Replace(ctx, tables); err != nil {
		return wacc.Tables{}, wacc.DataSourceError("import", err)
	}
	o.log.Info("tables imported", logger.String("source", o.source.Name()), logger.Int("sectors", len(tables.Sectors)))
	return tables, nil
}
