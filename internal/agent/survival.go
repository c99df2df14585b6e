package agent

import "github.com/shopspring/decimal"

// belowThreshold is the survival gate: a single below-threshold reading is
// terminal for the cycle. No hysteresis and no retry on a low reading — the
// balance was queried fresh moments before, and retrying would only defer an
// inevitable death branch.
func (a *Agent) belowThreshold(balance decimal.Decimal) bool {
	return balance.LessThan(a.cfg.SurvivalThreshold)
}
