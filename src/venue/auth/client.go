package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chart-bridge/src/helpers"
	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------
// CredentialClient
//
// Exchanges the venue identity for a short-lived bearer token with a single
// request/response call. The venue signals throttling inside an otherwise
// successful body (the p-captcha challenge flag), so that check runs before
// any token extraction: a throttled response still contains empty or partial
// token fields that would otherwise look like a protocol violation.
// -----------------------------------------------------------------------------

const (
	accessTokenPath = "/auth/accesstokenrequest"
	accessCheckPath = "/auth/me"
)

type CredentialClient struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCredentialClient(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *CredentialClient {
	return &CredentialClient{
		Config:  cfg,
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Acquire performs the credential exchange. It does not persist the result;
// that is the caller's responsibility.
func (c *CredentialClient) Acquire(ctx context.Context, login models.MLoginRequest) (*models.MCredential, error) {
	status, body, err := c.Network.PostJSON(ctx, c.Config.Venue.RestURL+accessTokenPath, login, nil)
	if err != nil {
		return nil, &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "credential exchange transport failure",
			Cause:   err,
		}}
	}

	var resp models.MLoginResponse
	parseErr := json.Unmarshal(body, &resp)

	if status < 200 || status >= 300 {
		// A parseable error body carries the venue's own message; anything
		// else is a protocol violation.
		if parseErr == nil && resp.ErrorText != "" {
			return nil, &helpers.AuthenticationError{ChartBridgeError: helpers.ChartBridgeError{
				Message: resp.ErrorText,
			}}
		}
		c.Logger.Warning("Credential exchange returned status %d with unparseable body", status)
		return nil, &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "credential exchange failed",
			Cause:   parseErr,
		}}
	}

	if parseErr != nil {
		return nil, &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "credential response is not valid JSON",
			Cause:   parseErr,
		}}
	}

	// Challenge flag first: a token field may be present alongside it and
	// must not win.
	if signal := rateLimitSignal(resp); signal.Detected {
		c.Logger.Warning("Venue is throttling authentication, retry after %ds", signal.RetryAfterSeconds)
		return nil, helpers.NewRateLimitError("authentication rate limited by venue", signal.RetryAfterSeconds)
	}

	if cred := extractCredential(resp); cred != nil {
		return cred, nil
	}

	// The venue does not always set the challenge flag before omitting the
	// token, so the ambiguity is surfaced as-is.
	return nil, &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
		Message: "no access token in response (authentication may be rate limited)",
	}}
}

// -----------------------------------------------------------------------------

// CheckAccess validates a token against the venue's identity endpoint. A 401
// surfaces as ExpiredCredentialError so a caller running behind the refresh
// gate renews and replays.
func (c *CredentialClient) CheckAccess(ctx context.Context, token string) error {
	headers := map[string]string{"Authorization": "Bearer " + token}

	status, _, err := c.Network.Get(ctx, c.Config.Venue.RestURL+accessCheckPath, nil, headers)
	if err != nil {
		return &helpers.FetchError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "access check transport failure",
			Cause:   err,
		}}
	}

	switch {
	case status == http.StatusUnauthorized:
		return &helpers.ExpiredCredentialError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "venue rejected the access token",
		}}
	case status < 200 || status >= 300:
		return &helpers.ProtocolError{ChartBridgeError: helpers.ChartBridgeError{
			Message: fmt.Sprintf("access check failed with status %d", status),
		}}
	}
	return nil
}

// -----------------------------------------------------------------------------

// rateLimitSignal derives the throttle state from a single response. Never
// persisted; recomputed per attempt.
func rateLimitSignal(resp models.MLoginResponse) models.MRateLimitSignal {
	if !resp.PCaptcha {
		return models.MRateLimitSignal{}
	}
	retryAfter := resp.PTime
	if retryAfter <= 0 {
		retryAfter = helpers.DefaultRetryAfterSeconds
	}
	return models.MRateLimitSignal{
		Detected:          true,
		RetryAfterSeconds: retryAfter,
		RetryAt:           time.Now().UTC().Add(time.Duration(retryAfter) * time.Second),
	}
}

// -----------------------------------------------------------------------------

// extractCredential checks the three possible token fields in fixed priority
// order and uses the first one present.
func extractCredential(resp models.MLoginResponse) *models.MCredential {
	now := time.Now().UTC()
	switch {
	case resp.AccessToken != "":
		return &models.MCredential{Token: resp.AccessToken, Kind: models.CredentialStandard, ObtainedAt: now}
	case resp.MdAccessToken != "":
		return &models.MCredential{Token: resp.MdAccessToken, Kind: models.CredentialMarketData, ObtainedAt: now}
	case resp.Token != "":
		return &models.MCredential{Token: resp.Token, Kind: models.CredentialGeneric, ObtainedAt: now}
	default:
		return nil
	}
}
