package analysis

import (
	"errors"
	"fmt"

	"github.com/imishinist/perfreport/internal/models"
)

// ErrMissingThreshold is returned by Evaluate when a threshold is not
// configured.
var ErrMissingThreshold = errors.New("missing threshold")

// Thresholds are the pass/fail limits of a run. A nil field is unset.
type Thresholds struct {
	// ErrorRate is the largest acceptable errors/transactions ratio.
	ErrorRate *float64
	// TPS is the smallest acceptable transaction count in any second.
	TPS *float64
}

// Evaluation is the outcome of Evaluate. Reason is empty for a pass.
type Evaluation struct {
	Verdict models.Verdict
	Reason  string
}

// Evaluate classifies a run. It fails when no transaction ran, when the
// error rate is strictly above the error rate threshold, or when any second
// of tpsBySecond is strictly below the TPS threshold. The first failing rule
// gives the reason.
func Evaluate(errorCount, transactionCount int, tpsBySecond []int, th Thresholds) (Evaluation, error) {
	if th.ErrorRate == nil {
		return Evaluation{}, fmt.Errorf("%w: error rate", ErrMissingThreshold)
	}
	if th.TPS == nil {
		return Evaluation{}, fmt.Errorf("%w: tps", ErrMissingThreshold)
	}

	if transactionCount == 0 {
		return Evaluation{Verdict: models.VerdictFail, Reason: "no transactions recorded"}, nil
	}

	rate := float64(errorCount) / float64(transactionCount)
	if rate > *th.ErrorRate {
		return Evaluation{
			Verdict: models.VerdictFail,
			Reason:  fmt.Sprintf("error rate %.4f exceeds threshold %.4f", rate, *th.ErrorRate),
		}, nil
	}

	for i, tps := range tpsBySecond {
		if float64(tps) < *th.TPS {
			return Evaluation{
				Verdict: models.VerdictFail,
				Reason:  fmt.Sprintf("second %d had %d transactions, below threshold %g", i+1, tps, *th.TPS),
			}, nil
		}
	}

	return Evaluation{Verdict: models.VerdictPass}, nil
}
