package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar wraps scmhub/calendar for session-hours checks.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

var futuresMonths = "FGHJKMNQUVXZ"

// micFor maps a symbol to a MIC code (ISO 10383). Futures contract codes
// (root + month code + year digit) trade on CME; dotted suffixes follow the
// usual equity-venue convention; everything else defaults to NYSE.
func micFor(symbol string) string {
	if len(symbol) >= 4 && !strings.Contains(symbol, ".") {
		last := symbol[len(symbol)-1]
		month := symbol[len(symbol)-2]
		if last >= '0' && last <= '9' && strings.ContainsRune(futuresMonths, rune(month)) {
			return "xcme"
		}
	}

	switch {
	case strings.HasSuffix(symbol, ".L"):
		return "xlon"
	case strings.HasSuffix(symbol, ".PA"):
		return "xpar"
	case strings.HasSuffix(symbol, ".DE"):
		return "xfra"
	case strings.HasSuffix(symbol, ".T"):
		return "xtks"
	case strings.HasSuffix(symbol, ".HK"):
		return "xhkg"
	default:
		return "xnys"
	}
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	mic := micFor(symbol)

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		// Fallback to xnys if not found
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri 09:30-16:00 NY).", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()

		// 9:30 - 16:00 NY Time
		if (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16 {
			return true
		}
		return false
	}

	return tc.Calendar.IsOpen(t)
}
