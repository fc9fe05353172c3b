package models

import "time"

// -----------------------------------------------------------------------------
// Credential Types
// -----------------------------------------------------------------------------

type CredentialKind string

const (
	CredentialStandard   CredentialKind = "standard"
	CredentialMarketData CredentialKind = "market_data"
	CredentialGeneric    CredentialKind = "generic"
)

// MCredential is the short-lived bearer token obtained from the venue.
// Exactly one credential is current per authenticated client; renewal
// replaces it wholesale.
type MCredential struct {
	Token      string         `json:"token"`
	Kind       CredentialKind `json:"kind"`
	ObtainedAt time.Time      `json:"obtained_at"`
}

// -----------------------------------------------------------------------------

// MLoginRequest carries the venue identity fields for the access token
// exchange.
type MLoginRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	AppID      string `json:"appId"`
	AppVersion string `json:"appVersion"`
	CID        string `json:"cid"`
	Sec        string `json:"sec"`
	DeviceID   string `json:"deviceId"`
}

// MLoginResponse is the venue's token response. The venue signals
// throttling inside a 200 body via the PCaptcha challenge flag, and does
// not always populate the token fields when it does.
type MLoginResponse struct {
	AccessToken   string `json:"accessToken"`
	MdAccessToken string `json:"mdAccessToken"`
	Token         string `json:"token"`
	ErrorText     string `json:"errorText"`
	PCaptcha      bool   `json:"p-captcha"`
	PTime         int    `json:"p-time"`
	PTicket       string `json:"p-ticket"`
}

// -----------------------------------------------------------------------------

// MRateLimitSignal is derived per auth attempt, never persisted.
type MRateLimitSignal struct {
	Detected          bool      `json:"detected"`
	RetryAfterSeconds int       `json:"retry_after_seconds"`
	RetryAt           time.Time `json:"retry_at"`
}
