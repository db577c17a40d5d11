package services

import (
	"math"

	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

// ReconciliationReport tells how many proxy finalizations could be paired
// with a resolved withdrawal request. It is diagnostic only.
type ReconciliationReport struct {
	Total            int       `json:"total"`
	Matched          int       `json:"matched"`
	Unmatched        int       `json:"unmatched"`
	UnmatchedAmounts []float64 `json:"unmatched_amounts"`
	// Outstanding are the withdrawal amounts no finalization consumed.
	Outstanding []float64 `json:"outstanding"`
	Tolerance   float64   `json:"tolerance"`
}

// AuditWithdrawals pairs every finalize amount, in order, with the first
// still unpaired withdrawal amount within tolerance. A paired withdrawal is
// consumed. The first candidate wins even when a closer one exists later.
func AuditWithdrawals(withdrawals, finalizes []float64, tolerance float64) ReconciliationReport {
	pool := make([]float64, len(withdrawals))
	copy(pool, withdrawals)

	report := ReconciliationReport{
		Total:            len(finalizes),
		UnmatchedAmounts: []float64{},
		Tolerance:        tolerance,
	}

	for _, finalized := range finalizes {
		found := -1
		for i, requested := range pool {
			if math.Abs(finalized-requested) <= tolerance {
				found = i
				break
			}
		}

		if found < 0 {
			report.Unmatched++
			report.UnmatchedAmounts = append(report.UnmatchedAmounts, finalized)
			continue
		}
		report.Matched++
		pool = append(pool[:found], pool[found+1:]...)
	}

	report.Outstanding = pool
	return report
}

// proxyAmounts returns the amounts of the proxy operations of the given kind,
// in stream order.
func proxyAmounts(ops []types.Operation, kind types.OperationKind) []float64 {
	amounts := []float64{}
	for _, op := range ops {
		if op.Source == types.SourceProxy && op.Kind == kind {
			amounts = append(amounts, op.Amount)
		}
	}
	return amounts
}
