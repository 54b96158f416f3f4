package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/oisentinel/models"

	"github.com/Alias1177/oisentinel/internal/baseline"
	"github.com/Alias1177/oisentinel/internal/market"
)

type fakeClient struct {
	doc   *models.RawChainDocument
	err   error
	calls int
}

func (f *fakeClient) FetchChain(ctx context.Context, expiryLabel string) (*models.RawChainDocument, error) {
	f.calls++
	return f.doc, f.err
}

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) Notify(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

type memStore struct {
	snapshots map[string]*models.BaselineSnapshot
	failing   bool
}

func (m *memStore) key(date time.Time, expiry string) string {
	return date.Format("2006-01-02") + "|" + expiry
}

func (m *memStore) Load(tradingDate time.Time, expiryLabel string) (*models.BaselineSnapshot, error) {
	if m.failing {
		return nil, errors.New("store down")
	}
	return m.snapshots[m.key(tradingDate, expiryLabel)], nil
}

func (m *memStore) Save(snapshot *models.BaselineSnapshot) error {
	if m.failing {
		return errors.New("store down")
	}
	m.snapshots[m.key(snapshot.TradingDate, snapshot.ExpiryLabel)] = snapshot
	return nil
}

func leg(oi int64) *models.OptionLeg {
	return &models.OptionLeg{OpenInterest: oi}
}

// chainDoc builds a five-strike document around spot 24865 where the
// 24900 strike carries the given OI.
func chainDoc(ce24900, pe24900 int64) *models.RawChainDocument {
	doc := &models.RawChainDocument{}
	doc.Records.UnderlyingValue = 24865
	doc.Records.ExpiryDates = []string{"03-Sep-2026"}
	for _, strike := range []float64{24750, 24800, 24850, 24950} {
		doc.Records.Data = append(doc.Records.Data, models.ChainRow{
			StrikePrice: strike,
			ExpiryDate:  "03-Sep-2026",
			CE:          leg(1000),
			PE:          leg(1000),
		})
	}
	doc.Records.Data = append(doc.Records.Data, models.ChainRow{
		StrikePrice: 24900,
		ExpiryDate:  "03-Sep-2026",
		CE:          leg(ce24900),
		PE:          leg(pe24900),
	})
	return doc
}

func testConfig() *models.Config {
	return &models.Config{
		Symbol:                   "NIFTY",
		OIChangeThresholdPercent: 400,
		OIRatioThreshold:         2.0,
		StrikeRange:              2,
		ExpiryDates:              "03-Sep-2026",
	}
}

func newMonitor(t *testing.T, client models.ChainClient, store models.BaselineStore, notifier models.Notifier) *Monitor {
	t.Helper()
	manager, err := baseline.NewManager(store, "09:17", "09:22")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return New(testConfig(), client, manager, notifier)
}

func sessionTime(hour, min int) time.Time {
	return time.Date(2026, 9, 1, hour, min, 0, 0, market.IST)
}

func TestRunCycleOutsideMarketHours(t *testing.T) {
	client := &fakeClient{doc: chainDoc(100, 500)}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot)}
	notifier := &fakeNotifier{}
	m := newMonitor(t, client, store, notifier)

	outcome, err := m.RunCycle(context.Background(), sessionTime(8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.CycleSkippedClosed {
		t.Errorf("status = %s, want SKIPPED_CLOSED", outcome.Status)
	}
	if client.calls != 0 {
		t.Errorf("fetch calls = %d, want 0 when market is closed", client.calls)
	}
}

func TestRunCycleFetchFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot)}
	m := newMonitor(t, client, store, &fakeNotifier{})

	outcome, err := m.RunCycle(context.Background(), sessionTime(10, 0))
	if err != nil {
		t.Fatalf("fetch failure must not abort the process: %v", err)
	}
	if outcome.Status != models.CycleSkippedNoData {
		t.Errorf("status = %s, want SKIPPED_NO_DATA", outcome.Status)
	}
}

func TestRunCycleMalformedDocument(t *testing.T) {
	doc := chainDoc(100, 500)
	doc.Records.UnderlyingValue = 0
	client := &fakeClient{doc: doc}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot)}
	m := newMonitor(t, client, store, &fakeNotifier{})

	outcome, err := m.RunCycle(context.Background(), sessionTime(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.CycleSkippedNoData {
		t.Errorf("status = %s, want SKIPPED_NO_DATA", outcome.Status)
	}
}

func TestRunCycleWaitsBeforeCaptureWindow(t *testing.T) {
	client := &fakeClient{doc: chainDoc(100, 500)}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot)}
	notifier := &fakeNotifier{}
	m := newMonitor(t, client, store, notifier)

	outcome, err := m.RunCycle(context.Background(), sessionTime(9, 16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.CycleWaitingBaseline {
		t.Errorf("status = %s, want WAITING_BASELINE", outcome.Status)
	}
	if len(store.snapshots) != 0 {
		t.Error("no baseline may be written before the capture window")
	}
	if len(notifier.subjects) != 0 {
		t.Error("no alerts may fire without a baseline")
	}
}

func TestRunCycleStoreFailureDegradesToWaiting(t *testing.T) {
	client := &fakeClient{doc: chainDoc(100, 500)}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot), failing: true}
	m := newMonitor(t, client, store, &fakeNotifier{})

	outcome, err := m.RunCycle(context.Background(), sessionTime(10, 0))
	if err != nil {
		t.Fatalf("persistence failure must not abort the process: %v", err)
	}
	if outcome.Status != models.CycleWaitingBaseline {
		t.Errorf("status = %s, want WAITING_BASELINE", outcome.Status)
	}
}

func TestRunCycleCaptureThenAlert(t *testing.T) {
	client := &fakeClient{doc: chainDoc(100, 500)}
	store := &memStore{snapshots: make(map[string]*models.BaselineSnapshot)}
	notifier := &fakeNotifier{}
	m := newMonitor(t, client, store, notifier)

	// First in-window cycle captures the baseline; nothing has deviated
	// yet, so it completes quietly.
	outcome, err := m.RunCycle(context.Background(), sessionTime(9, 18))
	if err != nil {
		t.Fatalf("capture cycle: %v", err)
	}
	if outcome.Status != models.CycleCompleted || outcome.Alerts != 0 {
		t.Fatalf("capture cycle outcome = %+v, want COMPLETED with 0 alerts", outcome)
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(store.snapshots))
	}

	// CE at 24900 jumps 100 -> 600 (500%) while PE drops to 200, current
	// ratio 3.0: the compound rule fires once.
	client.doc = chainDoc(600, 200)
	outcome, err = m.RunCycle(context.Background(), sessionTime(10, 30))
	if err != nil {
		t.Fatalf("alert cycle: %v", err)
	}
	if outcome.Status != models.CycleCompleted {
		t.Fatalf("status = %s, want COMPLETED", outcome.Status)
	}
	if outcome.Alerts != 1 {
		t.Fatalf("alerts = %d, want 1", outcome.Alerts)
	}
	if len(notifier.subjects) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(notifier.subjects))
	}

	// Same extreme chain next cycle: no cooldown, it re-alerts.
	outcome, err = m.RunCycle(context.Background(), sessionTime(10, 31))
	if err != nil {
		t.Fatalf("repeat cycle: %v", err)
	}
	if outcome.Alerts != 1 {
		t.Errorf("repeat alerts = %d, want 1 (no suppression across cycles)", outcome.Alerts)
	}
	if len(store.snapshots) != 1 {
		t.Errorf("snapshots = %d, baseline must stay unique per day", len(store.snapshots))
	}
}
