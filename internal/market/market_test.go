package market

import (
	"testing"
	"time"
)

func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IST)
}

func TestIsTradingWindow(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-session", ist(2026, 8, 31, 11, 0), true},
		{"open boundary", ist(2026, 8, 31, 9, 15), true},
		{"close boundary", ist(2026, 8, 31, 15, 30), true},
		{"just before open", ist(2026, 8, 31, 9, 14), false},
		{"just after close", ist(2026, 8, 31, 15, 31), false},
		{"saturday", ist(2026, 8, 29, 11, 0), false},
		{"sunday", ist(2026, 8, 30, 11, 0), false},
		{"friday close", ist(2026, 8, 28, 15, 30), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTradingWindow(tt.t); got != tt.want {
				t.Errorf("IsTradingWindow(%s) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestIsTradingWindowConvertsZones(t *testing.T) {
	// 06:00 UTC is 11:30 IST, inside the session.
	utc := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	if !IsTradingWindow(utc) {
		t.Error("06:00 UTC on a Monday should be inside the IST session")
	}
	// 11:00 UTC is 16:30 IST, after close.
	utc = time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)
	if IsTradingWindow(utc) {
		t.Error("11:00 UTC should be after the IST close")
	}
}

func TestTradingDate(t *testing.T) {
	// Late UTC evening is already the next calendar day in IST.
	utc := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	got := TradingDate(utc)
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("TradingDate = %s, want %s", got, want)
	}
}

func TestChooseExpiry(t *testing.T) {
	labels := []string{"03-Sep-2026", "10-Sep-2026", "17-Sep-2026"}

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"before first", ist(2026, 9, 1, 10, 0), "03-Sep-2026"},
		{"on expiry day", ist(2026, 9, 3, 10, 0), "03-Sep-2026"},
		{"between expiries", ist(2026, 9, 4, 10, 0), "10-Sep-2026"},
		{"past table falls back to last", ist(2026, 10, 1, 10, 0), "17-Sep-2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseExpiry(labels, tt.date); got != tt.want {
				t.Errorf("ChooseExpiry = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChooseExpiryIgnoresUnparseable(t *testing.T) {
	labels := []string{"garbage", "10-Sep-2026"}
	if got := ChooseExpiry(labels, ist(2026, 9, 1, 10, 0)); got != "10-Sep-2026" {
		t.Errorf("ChooseExpiry = %q, want 10-Sep-2026", got)
	}
	if got := ChooseExpiry([]string{"garbage"}, ist(2026, 9, 1, 10, 0)); got != "" {
		t.Errorf("ChooseExpiry = %q, want empty for all-unparseable input", got)
	}
}

func TestCalendar(t *testing.T) {
	cal := NewCalendar(" 03-Sep-2026, 10-Sep-2026 ,")
	if cal.Empty() {
		t.Fatal("calendar should not be empty")
	}
	if got := cal.CurrentExpiry(ist(2026, 9, 4, 10, 0)); got != "10-Sep-2026" {
		t.Errorf("CurrentExpiry = %q, want 10-Sep-2026", got)
	}

	if !NewCalendar("").Empty() {
		t.Error("empty config string should yield an empty calendar")
	}
}
