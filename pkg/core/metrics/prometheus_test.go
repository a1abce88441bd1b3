package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"wacc_simulator/pkg/core/wacc"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRun("Energia", OutcomeOK, 0.2, 30000)
	r.RecordRun("Energia", OutcomeOK, 0.1, 1000)
	r.RecordRun("Portos", OutcomeNotFound, 0.001, 0)
	r.RecordPercentile("Energia", 0.071)
	r.RecordLoad("csv:/data", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues("Energia", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("Portos", OutcomeNotFound)))
	assert.Equal(t, 31000.0, testutil.ToFloat64(r.samples))
	assert.Equal(t, 0.071, testutil.ToFloat64(r.lastPercentile.WithLabelValues("Energia")))

	n, err := testutil.GatherAndCount(reg, "wacc_source_load_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.RecordRun("x", OutcomeOK, 1, 1)
	r.RecordPercentile("x", 1)
	r.RecordLoad("x", 1)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeOf(nil))
	assert.Equal(t, OutcomeNotFound, OutcomeOf(fmt.Errorf("wrapped: %w", wacc.ErrNotFound)))
	assert.Equal(t, OutcomeInvalid, OutcomeOf(wacc.ErrInvalidParameter))
	assert.Equal(t, OutcomeInsufficient, OutcomeOf(wacc.ErrInsufficientData))
	assert.Equal(t, OutcomeCanceled, OutcomeOf(context.Canceled))
	assert.Equal(t, OutcomeDataSource, OutcomeOf(wacc.DataSourceError("csv:/x", errors.New("gone"))))
}
