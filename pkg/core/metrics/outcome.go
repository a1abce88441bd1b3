package metrics

import (
	"context"
	"errors"

	"wacc_simulator/pkg/core/wacc"
)

// OutcomeOf maps a run error to its outcome label.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, wacc.ErrInvalidParameter):
		return OutcomeInvalid
	case errors.Is(err, wacc.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, wacc.ErrInsufficientData):
		return OutcomeInsufficient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomeDataSource
}
