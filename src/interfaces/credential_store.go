package interfaces

import "chart-bridge/src/models"

// -----------------------------------------------------------------------------
// ICredentialStore defines the contract for credential persistence plus the
// request audit trail. Bars themselves are never persisted.
// -----------------------------------------------------------------------------

type ICredentialStore interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveCredential replaces the current credential.
	SaveCredential(cred models.MCredential) error

	// -----------------------------------------------------------------------------

	// LoadCredential returns the current credential, or (nil, nil) when none
	// is stored.
	LoadCredential() (*models.MCredential, error)

	// -----------------------------------------------------------------------------

	// ClearCredential removes the stored credential (logout side effect of a
	// failed refresh).
	ClearCredential() error

	// -----------------------------------------------------------------------------

	// RecordRequest appends one row to the bar-request audit log.
	RecordRequest(symbol, interval string, barCount int, errorKind string, durationMs int64) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
