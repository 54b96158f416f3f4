package trigger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Alias1177/oisentinel/models"

	"github.com/Alias1177/oisentinel/internal/deviation"
)

// CycleInfo carries the per-cycle context stamped onto every alert.
type CycleInfo struct {
	Now         time.Time
	TradingDate time.Time
	ExpiryLabel string
	SpotPrice   float64
	ATMStrike   int64
}

// Evaluator applies the compound trigger rule to one strike's deviation
// pair. Both legs must hold: a magnitude breach on either side, and a
// current-cycle side-imbalance at or above the ratio threshold.
type Evaluator struct {
	symbol             string
	magnitudeThreshold float64
	ratioThreshold     float64
}

func NewEvaluator(symbol string, magnitudeThreshold, ratioThreshold float64) *Evaluator {
	return &Evaluator{
		symbol:             symbol,
		magnitudeThreshold: magnitudeThreshold,
		ratioThreshold:     ratioThreshold,
	}
}

// Evaluate returns an AlertEvent when the strike qualifies, nil when
// quiet. There is no cross-cycle suppression: every cycle is judged
// independently against the fixed daily baseline, so a strike that stays
// extreme re-alerts each cycle it continues to qualify.
func (e *Evaluator) Evaluate(info CycleInfo, strike int64, pair models.DeviationPair) *models.AlertEvent {
	ceTrigger := pair.CE.PercentChange >= e.magnitudeThreshold
	peTrigger := pair.PE.PercentChange >= e.magnitudeThreshold
	if !ceTrigger && !peTrigger {
		return nil
	}

	ceOI := pair.CE.CurrentOI
	peOI := pair.PE.CurrentOI
	ratio, ok := deviation.SideRatio(ceOI, peOI)
	if !ok || ratio < e.ratioThreshold {
		return nil
	}

	// Call side takes precedence when both legs breach the magnitude
	// threshold.
	side := models.SideCall
	if !ceTrigger {
		side = models.SidePut
	}

	dominant := models.SideCall
	if peOI > ceOI {
		dominant = models.SidePut
	}

	return &models.AlertEvent{
		Timestamp:    info.Now,
		TradingDate:  info.TradingDate,
		ExpiryLabel:  info.ExpiryLabel,
		Symbol:       e.symbol,
		SpotPrice:    info.SpotPrice,
		ATMStrike:    info.ATMStrike,
		Strike:       strike,
		TriggerSide:  side,
		Deviation:    pair,
		CurrentCE:    ceOI,
		CurrentPE:    peOI,
		SideRatio:    ratio,
		DominantSide: dominant,
	}
}

// Subject builds the one-line alert subject.
func Subject(ev *models.AlertEvent) string {
	rec := triggerRecord(ev)
	return fmt.Sprintf("[OI ALERT] %s %d %s OI %s | CE:%d PE:%d",
		ev.Symbol, ev.Strike, ev.TriggerSide, formatPercent(rec.PercentChange), ev.CurrentCE, ev.CurrentPE)
}

// Body builds the multi-line alert text.
func Body(ev *models.AlertEvent) string {
	rec := triggerRecord(ev)
	diff := ev.CurrentCE - ev.CurrentPE
	if diff < 0 {
		diff = -diff
	}

	banner := strings.Repeat("=", 80)
	lines := []string{
		banner,
		fmt.Sprintf("TIME        : %s", ev.Timestamp.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("SYMBOL      : %s", ev.Symbol),
		fmt.Sprintf("EXPIRY      : %s", ev.ExpiryLabel),
		fmt.Sprintf("SPOT        : %g", ev.SpotPrice),
		fmt.Sprintf("ATM STRIKE  : %d", ev.ATMStrike),
		fmt.Sprintf("STRIKE      : %d", ev.Strike),
		"",
		fmt.Sprintf("CE OI       : %s", groupDigits(ev.CurrentCE)),
		fmt.Sprintf("PE OI       : %s", groupDigits(ev.CurrentPE)),
		fmt.Sprintf("TRIGGER SIDE: %s", ev.TriggerSide),
		fmt.Sprintf("BASE %s OI  : %s", ev.TriggerSide, groupDigits(rec.BaseOI)),
		fmt.Sprintf("%s OI CHANGE : %s (%s)", ev.TriggerSide, formatPercent(rec.PercentChange), rec.Direction),
		"",
		fmt.Sprintf("CE-PE ABS DIFF : %s", groupDigits(diff)),
		fmt.Sprintf("CE vs PE RATIO : %s ~ %.2fx the other side", ev.DominantSide, ev.SideRatio),
		banner,
		"",
	}
	return strings.Join(lines, "\n")
}

func triggerRecord(ev *models.AlertEvent) models.DeviationRecord {
	if ev.TriggerSide == models.SidePut {
		return ev.Deviation.PE
	}
	return ev.Deviation.CE
}

func formatPercent(pct float64) string {
	if math.IsInf(pct, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// groupDigits renders n with thousands separators (1234567 -> 1,234,567).
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
