// Package reconcile independently verifies extracted statement periods:
// per-period balance reconciliation (opening + entries = closing) and
// cross-period continuity (one period's closing equals the next opening).
// Both checks compare against document-sourced balances only; computed
// values are diagnostics and never replace what the document states.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"kontocheck/internal/money"
	"kontocheck/internal/statement"
)

// Result is the outcome of reconciling one statement period.
type Result struct {
	Opening         decimal.Decimal
	Closing         decimal.Decimal // from the document, authoritative
	EntriesSum      decimal.Decimal
	ComputedClosing decimal.Decimal // Opening + EntriesSum
	Discrepancy     decimal.Decimal // Closing - ComputedClosing
	Reconciled      bool
}

// Formula renders the reconciliation as "opening + sum = computed" for
// human-readable reports.
func (r Result) Formula() string {
	return fmt.Sprintf("%s + %s = %s",
		r.Opening.StringFixed(2), r.EntriesSum.StringFixed(2), r.ComputedClosing.StringFixed(2))
}

// Reconcile recomputes the closing balance of a period from its opening
// balance and entry amounts, and reports the discrepancy against the
// document-sourced closing balance. An empty entry list is valid: the
// computed closing then equals the opening balance exactly.
func Reconcile(p *statement.Period) Result {
	sum := decimal.Zero
	for _, e := range p.Entries {
		sum = sum.Add(e.Amount)
	}

	computed := p.Opening.Amount.Add(sum)
	discrepancy := p.Closing.Amount.Sub(computed)

	return Result{
		Opening:         p.Opening.Amount,
		Closing:         p.Closing.Amount,
		EntriesSum:      sum,
		ComputedClosing: computed,
		Discrepancy:     discrepancy,
		Reconciled:      money.WithinTolerance(discrepancy),
	}
}

// ContinuityCheck compares the closing balance of one period with the
// opening balance of the sequence-next period.
type ContinuityCheck struct {
	FromSequence int
	ToSequence   int
	LeftClosing  decimal.Decimal
	RightOpening decimal.Decimal
	Discrepancy  decimal.Decimal // LeftClosing - RightOpening
	Continuous   bool
}

// CheckContinuity validates statement-to-statement continuity over a set of
// periods. Periods are ordered by sequence number first; for every adjacent
// pair the document-sourced closing balance must equal the next period's
// document-sourced opening balance. The second return value is the AND over
// all pairwise checks (true for fewer than two periods).
func CheckContinuity(periods []*statement.Period) ([]ContinuityCheck, bool) {
	ordered := make([]*statement.Period, len(periods))
	copy(ordered, periods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	var checks []ContinuityCheck
	allOK := true

	for i := 0; i+1 < len(ordered); i++ {
		left, right := ordered[i], ordered[i+1]
		diff := left.Closing.Amount.Sub(right.Opening.Amount)
		ok := money.WithinTolerance(diff)

		checks = append(checks, ContinuityCheck{
			FromSequence: left.Sequence,
			ToSequence:   right.Sequence,
			LeftClosing:  left.Closing.Amount,
			RightOpening: right.Opening.Amount,
			Discrepancy:  diff,
			Continuous:   ok,
		})
		if !ok {
			allOK = false
		}
	}

	return checks, allOK
}
