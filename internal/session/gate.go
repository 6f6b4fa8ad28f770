// Package session guards the console behind the backend's credential
// check. It tracks a three-valued state so callers can distinguish
// "still verifying the stored token" from "verified absent".
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/atlasinovacoes/portalperf/internal/backend"
)

// State is the gate's verification status.
type State int

const (
	// StateUnknown means the stored credential has not been verified yet.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Authenticator is the slice of the backend client the gate needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResponse, error)
	AuthStatus(ctx context.Context) (*backend.StatusResponse, error)
	Logout(ctx context.Context) error
}

// CredentialStore persists the bearer token between sessions.
type CredentialStore interface {
	Token() string
	SetCredential(token string, expiresIn int) error
	ClearCredential() error
}

// Gate mediates login, logout and per-request authorization.
type Gate struct {
	auth   Authenticator
	store  CredentialStore
	logger *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewGate creates a gate in StateUnknown. Call Init to resolve it.
func NewGate(auth Authenticator, store CredentialStore, logger *slog.Logger) *Gate {
	return &Gate{
		auth:   auth,
		store:  store,
		logger: logger.With("component", "session"),
	}
}

// State returns the current verification status.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// MarkUnauthenticated flips the gate closed. Wired to the backend
// client's 401 hook so any rejected request logs the operator out.
func (g *Gate) MarkUnauthenticated() {
	g.mu.Lock()
	g.state = StateUnauthenticated
	g.mu.Unlock()
	if err := g.store.ClearCredential(); err != nil {
		g.logger.Error("failed to clear credential", "error", err)
	}
}

// Init verifies the stored credential against the backend. With no stored
// token the gate closes immediately without a network call. A reachable
// backend decides the state; an unreachable one leaves the gate closed.
func (g *Gate) Init(ctx context.Context) {
	if g.store.Token() == "" {
		g.mu.Lock()
		g.state = StateUnauthenticated
		g.mu.Unlock()
		return
	}

	status, err := g.auth.AuthStatus(ctx)
	if err != nil {
		g.logger.Warn("credential verification failed", "error", err)
		g.MarkUnauthenticated()
		return
	}
	if !status.Authenticated {
		g.MarkUnauthenticated()
		return
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()
	g.logger.Info("stored credential verified")
}

// Login exchanges operator credentials for a token. The credential is
// stored only on success.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	resp, err := g.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.Success || resp.AccessToken == "" {
		return fmt.Errorf("login rejected by backend")
	}

	if err := g.store.SetCredential(resp.AccessToken, resp.ExpiresIn); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()
	g.logger.Info("operator logged in", "username", username)
	return nil
}

// Logout clears the local credential unconditionally and tells the
// backend to invalidate the token on a best-effort basis.
func (g *Gate) Logout(ctx context.Context) {
	// Backend invalidation is fire-and-forget: local state wins.
	notifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := g.auth.Logout(notifyCtx); err != nil {
		g.logger.Warn("backend logout failed", "error", err)
	}

	g.MarkUnauthenticated()
	g.logger.Info("operator logged out")
}

// Middleware rejects requests while the gate is not open.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.State() != StateAuthenticated {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
