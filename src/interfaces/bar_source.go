package interfaces

import (
	"context"

	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------
// IBarSource is the contract the API server consumes: a symbol/interval
// request in, a normalized bar series out. Each call is an independent
// acquisition; implementations must not share transport state between
// concurrent calls.
// -----------------------------------------------------------------------------

type IBarSource interface {

	// FetchBars resolves a full bar series or fails with exactly one typed
	// error from the helpers taxonomy. Cancelling ctx aborts the in-flight
	// session and settles with a Cancelled outcome.
	FetchBars(ctx context.Context, symbol, interval string) ([]models.MBar, error)
}
