package stream

import (
	"context"
	"time"

	"chart-bridge/src/helpers"
	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
	"chart-bridge/src/utils"
	"chart-bridge/src/venue/auth"
)

// -----------------------------------------------------------------------------
// VenueBarSource
//
// The IBarSource the API server consumes. Every FetchBars call gets its own
// transport and its own session; nothing is shared between concurrent
// requests except the refresh gate.
// -----------------------------------------------------------------------------

type TransportFactory func() interfaces.IStreamTransport

type VenueBarSource struct {
	Config       *models.MConfig
	Logger       *logger.Logger
	Gate         *auth.RefreshGate
	Store        interfaces.ICredentialStore
	Scheduler    *utils.MarketScheduler
	NewTransport TransportFactory
}

var _ interfaces.IBarSource = (*VenueBarSource)(nil)

// -----------------------------------------------------------------------------

func NewVenueBarSource(cfg *models.MConfig, gate *auth.RefreshGate, store interfaces.ICredentialStore, scheduler *utils.MarketScheduler, log *logger.Logger) *VenueBarSource {
	return &VenueBarSource{
		Config:       cfg,
		Logger:       log,
		Gate:         gate,
		Store:        store,
		Scheduler:    scheduler,
		NewTransport: func() interfaces.IStreamTransport { return NewWebsocketTransport() },
	}
}

// -----------------------------------------------------------------------------

func (v *VenueBarSource) FetchBars(ctx context.Context, symbol, interval string) ([]models.MBar, error) {
	start := time.Now()

	token, err := v.Gate.Token(ctx)
	if err != nil {
		v.audit(symbol, interval, 0, err, start)
		return nil, err
	}

	if v.Scheduler != nil && !v.Scheduler.MarketOpen(symbol) {
		v.Logger.Info("Market for %s is closed; the venue may answer with an empty series", symbol)
	}

	session := NewStreamingSession(v.Config, v.NewTransport(), v.Logger)
	bars, err := session.FetchBars(ctx, token, symbol, interval)

	v.audit(symbol, interval, len(bars), err, start)
	if err != nil {
		return nil, err
	}

	v.Logger.Info("Fetched %d bars for %s @ %s in %s", len(bars), symbol, interval, time.Since(start).Round(time.Millisecond))
	return bars, nil
}

// -----------------------------------------------------------------------------

func (v *VenueBarSource) audit(symbol, interval string, barCount int, err error, start time.Time) {
	if v.Store == nil {
		return
	}
	kind := ""
	if err != nil {
		kind = helpers.Kind(err)
	}
	if auditErr := v.Store.RecordRequest(symbol, interval, barCount, kind, time.Since(start).Milliseconds()); auditErr != nil {
		v.Logger.Warning("Failed to record request audit row: %v", auditErr)
	}
}
