package utils

import (
	"testing"
	"time"

	"chart-bridge/src/logger"
)

// -----------------------------------------------------------------------------

func TestMicFor(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{symbol: "ESU5", want: "xcme"},
		{symbol: "GCZ5", want: "xcme"},
		{symbol: "AAPL", want: "xnys"},
		{symbol: "VOD.L", want: "xlon"},
		{symbol: "AIR.PA", want: "xpar"},
		{symbol: "BMW.DE", want: "xfra"},
		{symbol: "7203.T", want: "xtks"},
		{symbol: "0700.HK", want: "xhkg"},
		{symbol: "ES", want: "xnys"},
	}

	for _, tc := range cases {
		if got := micFor(tc.symbol); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.symbol, got, tc.want)
		}
	}
}

// -----------------------------------------------------------------------------

func TestFallbackCalendarHours(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	cal := &TradingCalendar{Fallback: true, Timezone: ny}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "mid-session weekday", at: time.Date(2026, 8, 26, 12, 0, 0, 0, ny), want: true},
		{name: "session open minute", at: time.Date(2026, 8, 26, 9, 30, 0, 0, ny), want: true},
		{name: "one minute before open", at: time.Date(2026, 8, 26, 9, 29, 0, 0, ny), want: false},
		{name: "at the close", at: time.Date(2026, 8, 26, 16, 0, 0, 0, ny), want: false},
		{name: "saturday", at: time.Date(2026, 8, 29, 12, 0, 0, 0, ny), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cal.IsOpenOnMinute(tc.at); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestSchedulerTracksConfiguredSymbols(t *testing.T) {
	scheduler := NewMarketScheduler([]string{"AAPL", "ESU5"}, logger.NewLogger("error", "test"))

	markets := scheduler.OpenMarkets()
	if len(markets) != 2 {
		t.Fatalf("expected 2 tracked markets, got %d", len(markets))
	}
	for _, symbol := range []string{"AAPL", "ESU5"} {
		if _, ok := markets[symbol]; !ok {
			t.Errorf("symbol %s not tracked", symbol)
		}
	}
}

// -----------------------------------------------------------------------------

func TestMarketOpenResolvesUntrackedSymbol(t *testing.T) {
	scheduler := NewMarketScheduler(nil, logger.NewLogger("error", "test"))

	// Must not panic for a symbol outside the configured list; the state
	// itself depends on the wall clock.
	_ = scheduler.MarketOpen("MSFT")
}
