package deviation

import (
	"math"

	"github.com/Alias1177/oisentinel/models"
)

// Compute compares one (strike, side) pair against its baseline value.
// Percent change is |current-base|/base*100; +Inf when the baseline is
// zero and the current value is not. Base and current both zero yields a
// FLAT zero-percent record, which can never satisfy a magnitude threshold.
func Compute(base, current int64) models.DeviationRecord {
	rec := models.DeviationRecord{
		BaseOI:    base,
		CurrentOI: current,
		Delta:     current - base,
	}

	switch {
	case rec.Delta > 0:
		rec.Direction = models.DirectionUp
	case rec.Delta < 0:
		rec.Direction = models.DirectionDown
	default:
		rec.Direction = models.DirectionFlat
	}

	if base == 0 {
		if current != 0 {
			rec.PercentChange = math.Inf(1)
		}
		return rec
	}

	rec.PercentChange = math.Abs(float64(rec.Delta)) / float64(base) * 100.0
	return rec
}

// EvaluateStrikes builds deviation pairs for every monitored strike that
// is present in both the current snapshot and the baseline. Strikes
// missing from either are skipped for this cycle (strikes come and go
// over the day), as are strikes whose current call and put OI are both
// zero (data-quality guard). A side absent from a present strike counts
// as zero.
func EvaluateStrikes(current *models.ChainSnapshot, base *models.BaselineSnapshot, monitored []int64) map[int64]models.DeviationPair {
	out := make(map[int64]models.DeviationPair)

	for _, strike := range monitored {
		obs, ok := current.OI[strike]
		if !ok {
			continue
		}
		baseOI, ok := base.OI[strike]
		if !ok {
			continue
		}
		if obs.CallOI == 0 && obs.PutOI == 0 {
			continue
		}

		out[strike] = models.DeviationPair{
			CE: Compute(baseOI.CE, obs.CallOI),
			PE: Compute(baseOI.PE, obs.PutOI),
		}
	}

	return out
}

// SideRatio is the current-cycle imbalance: larger side over smaller
// side. Defined only when both sides are strictly positive; the baseline
// never enters this ratio.
func SideRatio(ce, pe int64) (float64, bool) {
	if ce <= 0 || pe <= 0 {
		return 0, false
	}
	larger, smaller := ce, pe
	if pe > ce {
		larger, smaller = pe, ce
	}
	return float64(larger) / float64(smaller), true
}
