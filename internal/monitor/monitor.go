package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/models"

	"github.com/Alias1177/oisentinel/internal/baseline"
	"github.com/Alias1177/oisentinel/internal/chain"
	"github.com/Alias1177/oisentinel/internal/deviation"
	"github.com/Alias1177/oisentinel/internal/market"
	"github.com/Alias1177/oisentinel/internal/trigger"
)

// Monitor drives one polling iteration end-to-end: trading-hours gate,
// expiry resolution, fetch, normalize, baseline-ensure, deviation,
// trigger evaluation, alert dispatch. It holds no cross-cycle state of
// its own; the stored baseline is the only durable thing between cycles.
type Monitor struct {
	cfg      *models.Config
	client   models.ChainClient
	manager  *baseline.Manager
	eval     *trigger.Evaluator
	notifier models.Notifier
	calendar *market.Calendar
	logger   zerolog.Logger
}

func New(cfg *models.Config, client models.ChainClient, manager *baseline.Manager, notifier models.Notifier) *Monitor {
	return &Monitor{
		cfg:      cfg,
		client:   client,
		manager:  manager,
		eval:     trigger.NewEvaluator(cfg.Symbol, cfg.OIChangeThresholdPercent, cfg.OIRatioThreshold),
		notifier: notifier,
		calendar: market.NewCalendar(cfg.ExpiryDates),
		logger:   log.With().Str("component", "monitor").Logger(),
	}
}

// RunCycle executes a single iteration at the given instant. Every
// failure is local to the cycle: the caller just waits for the next tick.
func (m *Monitor) RunCycle(ctx context.Context, now time.Time) (models.CycleOutcome, error) {
	if !market.IsTradingWindow(now) {
		m.logger.Debug().Time("now", now).Msg("Outside market hours, skipping cycle")
		return models.CycleOutcome{Status: models.CycleSkippedClosed}, nil
	}

	ist := now.In(market.IST)
	tradingDate := market.TradingDate(now)
	expiry := m.calendar.CurrentExpiry(tradingDate)

	doc, err := m.client.FetchChain(ctx, expiry)
	if err != nil {
		m.logger.Error().Err(err).Msg("Option chain fetch failed")
		return models.CycleOutcome{Status: models.CycleSkippedNoData}, nil
	}

	// No configured expiry table: resolve from the labels the exchange
	// itself reports.
	if expiry == "" {
		expiry = market.ChooseExpiry(doc.Records.ExpiryDates, tradingDate)
	}

	snapshot, err := chain.Normalize(doc, expiry, now)
	if err != nil {
		m.logger.Error().Err(err).Str("expiry", expiry).Msg("Chain normalization failed")
		return models.CycleOutcome{Status: models.CycleSkippedNoData}, nil
	}

	atm := chain.ATMStrike(snapshot)
	m.logger.Info().
		Float64("spot", snapshot.SpotPrice).
		Int64("atm", atm).
		Int64("step", snapshot.StrikeStep).
		Str("expiry", expiry).
		Msg("Cycle snapshot")

	status, err := m.manager.EnsureBaseline(ist, tradingDate, expiry, snapshot)
	if err != nil {
		m.logger.Error().Err(err).Msg("Baseline store unavailable, degrading cycle to waiting")
		return models.CycleOutcome{Status: models.CycleWaitingBaseline}, nil
	}
	if status != baseline.StatusReady {
		return models.CycleOutcome{Status: models.CycleWaitingBaseline}, nil
	}

	base, err := m.manager.Load(tradingDate, expiry)
	if err != nil || base == nil {
		m.logger.Error().Err(err).Msg("Baseline load failed after ready status")
		return models.CycleOutcome{Status: models.CycleWaitingBaseline}, nil
	}

	if snapshot.StrikeStep == 0 {
		m.logger.Warn().Msg("Cannot determine strike step, skipping evaluation this cycle")
		return models.CycleOutcome{Status: models.CycleCompleted}, nil
	}

	monitored := chain.MonitoredStrikes(atm, snapshot.StrikeStep, m.cfg.StrikeRange)
	pairs := deviation.EvaluateStrikes(snapshot, base, monitored)

	// Deterministic dispatch order for logs and tests; evaluation itself
	// is order-independent.
	strikes := make([]int64, 0, len(pairs))
	for s := range pairs {
		strikes = append(strikes, s)
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i] < strikes[j] })

	info := trigger.CycleInfo{
		Now:         ist,
		TradingDate: tradingDate,
		ExpiryLabel: expiry,
		SpotPrice:   snapshot.SpotPrice,
		ATMStrike:   atm,
	}

	alerts := 0
	for _, strike := range strikes {
		ev := m.eval.Evaluate(info, strike, pairs[strike])
		if ev == nil {
			continue
		}
		alerts++
		m.logger.Info().
			Int64("strike", ev.Strike).
			Str("side", string(ev.TriggerSide)).
			Float64("ratio", ev.SideRatio).
			Msg("OI anomaly trigger fired")
		m.notifier.Notify(trigger.Subject(ev), trigger.Body(ev))
	}

	return models.CycleOutcome{Status: models.CycleCompleted, Alerts: alerts}, nil
}
