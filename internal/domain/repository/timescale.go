package repository

// Timescale tags the temporal resolution a metrics snapshot was computed at.
type Timescale string

const (
	ScaleMonthly  Timescale = "monthly"
	ScaleWeekly   Timescale = "weekly"
	ScaleDaily    Timescale = "daily"
	ScaleIntraday Timescale = "intraday"
)

// AllTimescales lists every supported scale in coarse-to-fine order.
func AllTimescales() []Timescale {
	return []Timescale{ScaleMonthly, ScaleWeekly, ScaleDaily, ScaleIntraday}
}

// IsValidTimescale returns true if ts is a supported timescale.
func IsValidTimescale(ts Timescale) bool {
	switch ts {
	case ScaleMonthly, ScaleWeekly, ScaleDaily, ScaleIntraday:
		return true
	default:
		return false
	}
}

// DecimationFactor returns the fixed subsampling stride for a scale.
// This is a documented approximation: resampling takes every Nth point
// instead of aggregating OHLC ranges per period.
func DecimationFactor(ts Timescale) int {
	switch ts {
	case ScaleMonthly:
		return 20
	case ScaleWeekly:
		return 5
	default:
		return 1
	}
}
