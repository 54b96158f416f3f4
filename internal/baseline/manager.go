package baseline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/models"
)

// Status of the day's baseline after an EnsureBaseline call.
type Status string

const (
	// StatusReady means a baseline exists for the key and deviations can
	// be evaluated this cycle.
	StatusReady Status = "READY"
	// StatusWaiting means no baseline exists yet (capture window not
	// reached, or the store is unavailable). No alerts this cycle.
	StatusWaiting Status = "WAITING"
)

// Manager decides once per cycle whether the day's baseline exists and
// captures it lazily inside the configured window. The baseline is
// anchored to a fixed early-session snapshot rather than rolling
// previous-cycle values, so every later deviation is measured against
// pre-move positioning.
type Manager struct {
	store        models.BaselineStore
	captureStart int // minutes from midnight, market time
	softDeadline int
	logger       zerolog.Logger
}

// NewManager parses the capture window bounds ("HH:MM" market time).
func NewManager(store models.BaselineStore, captureStart, softDeadline string) (*Manager, error) {
	start, err := parseClock(captureStart)
	if err != nil {
		return nil, fmt.Errorf("capture start: %w", err)
	}
	deadline, err := parseClock(softDeadline)
	if err != nil {
		return nil, fmt.Errorf("capture deadline: %w", err)
	}
	if deadline < start {
		return nil, fmt.Errorf("capture deadline %s before start %s", softDeadline, captureStart)
	}

	return &Manager{
		store:        store,
		captureStart: start,
		softDeadline: deadline,
		logger:       log.With().Str("component", "baseline_manager").Logger(),
	}, nil
}

// EnsureBaseline returns READY when a baseline exists for the key,
// capturing one first if the window has opened. Idempotent: once a
// snapshot is stored, repeated calls never write again and the first
// capture's values stay the day's reference.
func (m *Manager) EnsureBaseline(now time.Time, tradingDate time.Time, expiryLabel string, current *models.ChainSnapshot) (Status, error) {
	existing, err := m.store.Load(tradingDate, expiryLabel)
	if err != nil {
		return StatusWaiting, err
	}
	if existing != nil {
		return StatusReady, nil
	}

	minutes := now.Hour()*60 + now.Minute()
	if minutes < m.captureStart {
		m.logger.Debug().
			Str("expiry", expiryLabel).
			Int("minutes_until_window", m.captureStart-minutes).
			Msg("Before capture window, baseline not taken yet")
		return StatusWaiting, nil
	}

	snap := &models.BaselineSnapshot{
		TradingDate: tradingDate,
		ExpiryLabel: expiryLabel,
		CapturedAt:  now,
		OI:          make(map[int64]models.SideOI, len(current.OI)),
	}
	for strike, obs := range current.OI {
		snap.OI[strike] = models.SideOI{CE: obs.CallOI, PE: obs.PutOI}
	}

	if err := m.store.Save(snap); err != nil {
		return StatusWaiting, err
	}

	evt := m.logger.Info()
	if minutes > m.softDeadline {
		// Late capture: correctness is unchanged, but worth seeing in the
		// logs since the reference no longer represents the open.
		evt = m.logger.Warn().Bool("late_capture", true)
	}
	evt.
		Str("expiry", expiryLabel).
		Time("captured_at", now).
		Int("strikes", len(snap.OI)).
		Msg("Baseline snapshot captured")

	return StatusReady, nil
}

// Load returns the stored baseline for the key, nil when none exists.
func (m *Manager) Load(tradingDate time.Time, expiryLabel string) (*models.BaselineSnapshot, error) {
	return m.store.Load(tradingDate, expiryLabel)
}

// parseClock converts "HH:MM" to minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
