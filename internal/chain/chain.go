package chain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Alias1177/oisentinel/models"
)

// ErrMalformedDocument marks a chain document the normalizer cannot use:
// missing spot price or no strike rows surviving the expiry filter.
var ErrMalformedDocument = errors.New("malformed chain document")

// Normalize turns a raw NSE document into a ChainSnapshot for one expiry.
// Rows belonging to other expiries are dropped. A strike whose call and
// put legs are both absent is omitted; a one-sided strike is kept with
// the missing side flagged absent. Pure function, no I/O.
func Normalize(doc *models.RawChainDocument, expiryLabel string, fetchedAt time.Time) (*models.ChainSnapshot, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedDocument)
	}
	if doc.Records.UnderlyingValue <= 0 {
		return nil, fmt.Errorf("%w: missing underlying value", ErrMalformedDocument)
	}

	oi := make(map[int64]models.StrikeOI)
	for _, row := range doc.Records.Data {
		if expiryLabel != "" && row.ExpiryDate != "" && row.ExpiryDate != expiryLabel {
			continue
		}
		if row.CE == nil && row.PE == nil {
			continue
		}

		strike := int64(math.Round(row.StrikePrice))
		obs := oi[strike]
		obs.Strike = strike
		if row.CE != nil {
			obs.CallOI = row.CE.OpenInterest
			obs.HasCall = true
		}
		if row.PE != nil {
			obs.PutOI = row.PE.OpenInterest
			obs.HasPut = true
		}
		oi[strike] = obs
	}

	if len(oi) == 0 {
		return nil, fmt.Errorf("%w: no strikes for expiry %q", ErrMalformedDocument, expiryLabel)
	}

	strikes := make([]int64, 0, len(oi))
	for s := range oi {
		strikes = append(strikes, s)
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i] < strikes[j] })

	return &models.ChainSnapshot{
		SpotPrice:  doc.Records.UnderlyingValue,
		StrikeStep: strikeStep(strikes),
		Strikes:    strikes,
		OI:         oi,
		FetchedAt:  fetchedAt,
	}, nil
}

// strikeStep is the minimum positive gap between consecutive sorted
// distinct strikes, 0 when fewer than two strikes are listed.
func strikeStep(sorted []int64) int64 {
	if len(sorted) < 2 {
		return 0
	}
	step := int64(0)
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i] - sorted[i-1]
		if gap <= 0 {
			continue
		}
		if step == 0 || gap < step {
			step = gap
		}
	}
	return step
}

// ATMStrike returns the listed strike closest to the spot price. On a
// distance tie the lower strike wins (first minimal in ascending order).
func ATMStrike(snapshot *models.ChainSnapshot) int64 {
	best := snapshot.Strikes[0]
	bestDist := math.Abs(float64(best) - snapshot.SpotPrice)
	for _, s := range snapshot.Strikes[1:] {
		dist := math.Abs(float64(s) - snapshot.SpotPrice)
		if dist < bestDist {
			best = s
			bestDist = dist
		}
	}
	return best
}

// MonitoredStrikes builds the ATM +/- n candidate window stepped by the
// strike step: exactly 2n+1 strikes. Candidates missing from the snapshot
// are the caller's problem (they get skipped, not substituted).
func MonitoredStrikes(atm, step int64, n int) []int64 {
	if step <= 0 {
		return nil
	}
	strikes := make([]int64, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		strikes = append(strikes, atm+int64(i)*step)
	}
	return strikes
}
