package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chart-bridge/src/helpers"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
	"chart-bridge/src/network"
)

// -----------------------------------------------------------------------------

func clientFor(t *testing.T, handler http.HandlerFunc) (*CredentialClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &models.MConfig{
		Venue:   models.MVenueConfig{RestURL: server.URL},
		Network: models.MNetworkConfig{RequestTimeout: 5, MaxRetries: 1},
	}
	log := logger.NewLogger("error", "test")
	return NewCredentialClient(cfg, network.NewAsyncNetworkManager(cfg, log), log), server
}

func testLogin() models.MLoginRequest {
	return models.MLoginRequest{Name: "user", Password: "pass", AppID: "app"}
}

// -----------------------------------------------------------------------------

func TestAcquireTokenPriority(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantTok  string
		wantKind models.CredentialKind
	}{
		{
			name:     "accessToken wins over the others",
			body:     `{"accessToken":"a","mdAccessToken":"b","token":"c"}`,
			wantTok:  "a",
			wantKind: models.CredentialStandard,
		},
		{
			name:     "mdAccessToken when accessToken absent",
			body:     `{"mdAccessToken":"b","token":"c"}`,
			wantTok:  "b",
			wantKind: models.CredentialMarketData,
		},
		{
			name:     "bare token as last resort",
			body:     `{"token":"c"}`,
			wantTok:  "c",
			wantKind: models.CredentialGeneric,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})

			cred, err := client.Acquire(context.Background(), testLogin())
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if cred.Token != tc.wantTok || cred.Kind != tc.wantKind {
				t.Errorf("got %q/%s, want %q/%s", cred.Token, cred.Kind, tc.wantTok, tc.wantKind)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestAcquireChallengeFlagBeatsToken(t *testing.T) {
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accessToken":"a","p-captcha":true,"p-time":42}`))
	})

	_, err := client.Acquire(context.Background(), testLogin())
	var rlErr *helpers.RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.RetryAfterSeconds != 42 {
		t.Errorf("expected p-time to set the retry delay, got %d", rlErr.RetryAfterSeconds)
	}
}

// -----------------------------------------------------------------------------

func TestAcquireChallengeWithoutPTimeUsesFallback(t *testing.T) {
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"p-captcha":true}`))
	})

	_, err := client.Acquire(context.Background(), testLogin())
	var rlErr *helpers.RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rlErr.RetryAfterSeconds != helpers.DefaultRetryAfterSeconds {
		t.Errorf("expected fallback delay %d, got %d", helpers.DefaultRetryAfterSeconds, rlErr.RetryAfterSeconds)
	}
}

// -----------------------------------------------------------------------------

func TestAcquireNoTokenAnywhere(t *testing.T) {
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Acquire(context.Background(), testLogin())
	var protoErr *helpers.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestAcquireVenueErrorMessage(t *testing.T) {
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorText":"invalid credentials"}`))
	})

	_, err := client.Acquire(context.Background(), testLogin())
	var authErr *helpers.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Message != "invalid credentials" {
		t.Errorf("expected the venue message, got %q", authErr.Message)
	}
}

// -----------------------------------------------------------------------------

func TestAcquireUnparseableErrorBody(t *testing.T) {
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := client.Acquire(context.Background(), testLogin())
	var protoErr *helpers.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestCheckAccess(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		wantKind string
	}{
		{name: "valid token", status: http.StatusOK, wantKind: ""},
		{name: "expired token", status: http.StatusUnauthorized, wantKind: "ExpiredCredentialError"},
		{name: "unexpected status", status: http.StatusForbidden, wantKind: "ProtocolError"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != accessCheckPath {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
				}
				w.WriteHeader(tc.status)
			})

			err := client.CheckAccess(context.Background(), "tok")
			if tc.wantKind == "" {
				if err != nil {
					t.Fatalf("CheckAccess: %v", err)
				}
				return
			}
			if helpers.Kind(err) != tc.wantKind {
				t.Errorf("got %v, want kind %s", err, tc.wantKind)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestCheckAccessThroughGateRenewsExpiredToken(t *testing.T) {
	// The venue rejects the stale token and accepts the renewed one; the
	// gate must renew once and replay the check.
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	store := &fakeStore{cred: &models.MCredential{Token: "stale"}}
	renewals := 0
	gate := NewRefreshGate(func(ctx context.Context) (*models.MCredential, error) {
		renewals++
		return &models.MCredential{Token: "renewed"}, nil
	}, store, gateLogger())

	err := gate.Do(context.Background(), func(token string) error {
		return client.CheckAccess(context.Background(), token)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if renewals != 1 {
		t.Errorf("expected exactly 1 renewal, got %d", renewals)
	}
	cred, _ := store.LoadCredential()
	if cred == nil || cred.Token != "renewed" {
		t.Errorf("expected the renewed credential to be persisted, got %+v", cred)
	}
}

// -----------------------------------------------------------------------------

func TestAcquireSendsSingleRequest(t *testing.T) {
	requests := 0
	client, _ := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != accessTokenPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Acquire(context.Background(), testLogin()); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if requests != 1 {
		t.Errorf("credential exchange must not retry, got %d requests", requests)
	}
}
