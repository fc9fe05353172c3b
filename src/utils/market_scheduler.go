package utils

import (
	"sync"
	"time"

	"chart-bridge/src/logger"
)

// MarketScheduler tracks which configured symbols are currently inside
// their venue's session hours. Used by the health endpoint and for the
// "bars requested while market closed" log line; it never gates a fetch.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.MapSymbolsToCalendars(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// MapSymbolsToCalendars maps a list of symbols to their respective calendars
func (ms *MarketScheduler) MapSymbolsToCalendars(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		if cal := GetCalendar(symbol); cal != nil {
			ms.Calendars[symbol] = cal
		}
	}

	ms.Logger.Info("MarketScheduler: Mapped %d symbols.", len(symbols))
}

// -----------------------------------------------------------------------------

// MarketOpen reports whether the symbol's venue is currently in session.
// Symbols without a tracked calendar resolve one on the fly.
func (ms *MarketScheduler) MarketOpen(symbol string) bool {
	ms.mu.RLock()
	cal := ms.Calendars[symbol]
	ms.mu.RUnlock()

	if cal == nil {
		cal = GetCalendar(symbol)
	}
	return cal.IsOpenOnMinute(time.Now().UTC())
}

// -----------------------------------------------------------------------------

// OpenMarkets returns the per-symbol session state for the health endpoint.
func (ms *MarketScheduler) OpenMarkets() map[string]bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make(map[string]bool, len(ms.Calendars))
	for symbol, cal := range ms.Calendars {
		result[symbol] = cal.IsOpenOnMinute(now)
	}
	return result
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked markets are currently open
func (ms *MarketScheduler) AnyMarketOpen() bool {
	for _, open := range ms.OpenMarkets() {
		if open {
			return true
		}
	}
	return false
}
