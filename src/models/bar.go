package models

// MBarRaw is a venue-native bar record: millisecond timestamp, optional
// volume. Owned by the session that received it until normalization.
type MBarRaw struct {
	TimestampMs int64    `json:"t"`
	Open        *float64 `json:"o"`
	High        *float64 `json:"h"`
	Low         *float64 `json:"l"`
	Close       *float64 `json:"c"`
	Volume      *float64 `json:"v,omitempty"`
}

// -----------------------------------------------------------------------------

// MBar is the canonical bar shape served to chart rendering. Immutable once
// produced; TimeSec == TimestampMs / 1000.
type MBar struct {
	TimeSec float64 `json:"time"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  float64 `json:"volume"`
}
