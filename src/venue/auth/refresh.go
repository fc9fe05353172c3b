package auth

import (
	"context"
	"sync"

	"chart-bridge/src/helpers"
	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
)

// -----------------------------------------------------------------------------
// RefreshGate
//
// Serializes credential renewal across every authenticated call site. The
// first caller to observe an expired credential performs exactly one renewal;
// every concurrent caller that expires while that renewal is in flight is
// queued and settled by its outcome. The refreshing flag and the waiter queue
// are the only shared mutable state, guarded by one mutex.
//
// The queue swap and the flag clear happen under a single lock acquisition,
// so a caller arriving during the drain either queued before the swap (and is
// settled by this cycle) or observes refreshing == false and starts a fresh
// cycle. No caller is ever dropped.
// -----------------------------------------------------------------------------

// RenewFunc issues one credential renewal. Injected so tests can count
// renewal attempts.
type RenewFunc func(ctx context.Context) (*models.MCredential, error)

type refreshOutcome struct {
	cred *models.MCredential
	err  error
}

type RefreshGate struct {
	Logger *logger.Logger

	renew RenewFunc
	store interfaces.ICredentialStore

	mu         sync.Mutex
	current    *models.MCredential
	refreshing bool
	waiters    []chan refreshOutcome
}

// -----------------------------------------------------------------------------

func NewRefreshGate(renew RenewFunc, store interfaces.ICredentialStore, log *logger.Logger) *RefreshGate {
	return &RefreshGate{
		Logger: log,
		renew:  renew,
		store:  store,
	}
}

// -----------------------------------------------------------------------------

// Do runs an authenticated call. On an expired-credential failure it joins
// (or starts) one refresh cycle and replays the call exactly once with the
// renewed token. Any other failure passes through untouched.
func (g *RefreshGate) Do(ctx context.Context, call func(token string) error) error {
	token, err := g.Token(ctx)
	if err != nil {
		return err
	}

	err = call(token)
	if err == nil || !helpers.IsExpiredCredential(err) {
		return err
	}

	out := g.refresh(ctx)
	if out.err != nil {
		return out.err
	}

	// One replay per expiry event; a second expiry propagates as-is rather
	// than looping.
	return call(out.cred.Token)
}

// -----------------------------------------------------------------------------

// Token returns the current credential's token, loading the persisted one or
// acquiring a fresh one on cold start. Cold-start acquisition goes through
// the same gate, so N concurrent first calls still issue a single exchange.
func (g *RefreshGate) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	cur := g.current
	g.mu.Unlock()
	if cur != nil {
		return cur.Token, nil
	}

	if g.store != nil {
		if cred, err := g.store.LoadCredential(); err == nil && cred != nil {
			g.mu.Lock()
			if g.current == nil {
				g.current = cred
			}
			cur = g.current
			g.mu.Unlock()
			return cur.Token, nil
		}
	}

	out := g.refresh(ctx)
	if out.err != nil {
		return "", out.err
	}
	return out.cred.Token, nil
}

// -----------------------------------------------------------------------------

// Logout drops the in-memory credential and clears the persisted one.
func (g *RefreshGate) Logout() {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
	if g.store != nil {
		if err := g.store.ClearCredential(); err != nil {
			g.Logger.Warning("Failed to clear persisted credential: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

// refresh joins the in-flight cycle or runs a new one. Exactly one renewal
// call is in flight at any time.
func (g *RefreshGate) refresh(ctx context.Context) refreshOutcome {
	g.mu.Lock()
	if g.refreshing {
		ch := make(chan refreshOutcome, 1)
		g.waiters = append(g.waiters, ch)
		g.mu.Unlock()

		select {
		case out := <-ch:
			return out
		case <-ctx.Done():
			// The buffered channel lets the drain complete without us.
			return refreshOutcome{err: &helpers.CancelledError{ChartBridgeError: helpers.ChartBridgeError{
				Message: "refresh wait cancelled",
				Cause:   ctx.Err(),
			}}}
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	cred, err := g.renew(ctx)
	out := refreshOutcome{cred: cred, err: err}

	g.mu.Lock()
	if err == nil {
		g.current = cred
	} else {
		g.current = nil
	}
	waiters := g.waiters
	g.waiters = nil
	g.refreshing = false
	g.mu.Unlock()

	if err == nil {
		if g.store != nil {
			if serr := g.store.SaveCredential(*cred); serr != nil {
				g.Logger.Warning("Failed to persist renewed credential: %v", serr)
			}
		}
	} else {
		g.Logger.Error("Credential renewal failed, forcing logout: %v", err)
		if g.store != nil {
			if serr := g.store.ClearCredential(); serr != nil {
				g.Logger.Warning("Failed to clear persisted credential: %v", serr)
			}
		}
	}

	for _, ch := range waiters {
		ch <- out
	}
	return out
}
