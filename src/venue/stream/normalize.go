package stream

import (
	"chart-bridge/src/helpers"
	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------
// BarNormalizer
//
// Pure transformation from venue-native bar records to the canonical shape.
// No retries, no recovery: a record missing any OHLC field propagates as a
// protocol violation.
// -----------------------------------------------------------------------------

// Normalize converts one raw bar. TimeSec == TimestampMs / 1000 always
// holds; a missing volume defaults to 0.
func Normalize(raw models.MBarRaw) (models.MBar, error) {
	if raw.Open == nil || raw.High == nil || raw.Low == nil || raw.Close == nil {
		return models.MBar{}, &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "bar record missing OHLC fields",
		}}
	}

	volume := 0.0
	if raw.Volume != nil {
		volume = *raw.Volume
	}

	return models.MBar{
		TimeSec: float64(raw.TimestampMs) / 1000,
		Open:    *raw.Open,
		High:    *raw.High,
		Low:     *raw.Low,
		Close:   *raw.Close,
		Volume:  volume,
	}, nil
}

// -----------------------------------------------------------------------------

// NormalizeSeries converts a full buffer, failing on the first malformed
// record.
func NormalizeSeries(raw []models.MBarRaw) ([]models.MBar, error) {
	bars := make([]models.MBar, 0, len(raw))
	for _, r := range raw {
		bar, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
