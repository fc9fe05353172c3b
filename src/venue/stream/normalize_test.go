package stream

import (
	"errors"
	"testing"

	"chart-bridge/src/helpers"
	"chart-bridge/src/models"
)

func fptr(v float64) *float64 { return &v }

// -----------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		raw     models.MBarRaw
		want    models.MBar
		wantErr bool
	}{
		{
			name: "full record",
			raw: models.MBarRaw{
				TimestampMs: 1700000000000,
				Open:        fptr(1), High: fptr(2), Low: fptr(0.5), Close: fptr(1.5),
				Volume: fptr(1234),
			},
			want: models.MBar{TimeSec: 1700000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1234},
		},
		{
			name: "missing volume defaults to zero",
			raw: models.MBarRaw{
				TimestampMs: 1700000060000,
				Open:        fptr(1), High: fptr(2), Low: fptr(0.5), Close: fptr(1.5),
			},
			want: models.MBar{TimeSec: 1700000060, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 0},
		},
		{
			name: "sub-second timestamp keeps the fraction",
			raw: models.MBarRaw{
				TimestampMs: 1700000000500,
				Open:        fptr(1), High: fptr(1), Low: fptr(1), Close: fptr(1),
			},
			want: models.MBar{TimeSec: 1700000000.5, Open: 1, High: 1, Low: 1, Close: 1, Volume: 0},
		},
		{
			name:    "missing close",
			raw:     models.MBarRaw{TimestampMs: 1, Open: fptr(1), High: fptr(1), Low: fptr(1)},
			wantErr: true,
		},
		{
			name:    "empty record",
			raw:     models.MBarRaw{TimestampMs: 1},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bar, err := Normalize(tc.raw)
			if tc.wantErr {
				var protoErr *helpers.ProtocolError
				if !errors.As(err, &protoErr) {
					t.Fatalf("expected ProtocolError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if bar != tc.want {
				t.Errorf("got %+v, want %+v", bar, tc.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeSeriesFailsOnFirstBadRecord(t *testing.T) {
	raw := []models.MBarRaw{
		{TimestampMs: 1, Open: fptr(1), High: fptr(1), Low: fptr(1), Close: fptr(1)},
		{TimestampMs: 2},
	}

	bars, err := NormalizeSeries(raw)
	if err == nil {
		t.Fatal("expected an error for the malformed record")
	}
	if bars != nil {
		t.Errorf("expected no partial result, got %+v", bars)
	}
}
