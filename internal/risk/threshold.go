package risk

import "github.com/shopspring/decimal"

var maintenanceThreshold = decimal.RequireFromString(MaintenanceThreshold)

// breachesMaintenance reports whether unrealized_pnl / margin is
// strictly less than the maintenance threshold. Exactly at the
// threshold does not breach, per spec.md §8 scenario 7.
func breachesMaintenance(unrealizedPnL, margin decimal.Decimal) bool {
	if margin.IsZero() {
		return false
	}
	ratio := unrealizedPnL.Div(margin)
	return ratio.LessThan(maintenanceThreshold)
}
