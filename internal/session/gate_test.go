package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlasinovacoes/portalperf/internal/backend"
)

type fakeAuth struct {
	loginResp  *backend.LoginResponse
	loginErr   error
	statusResp *backend.StatusResponse
	statusErr  error
	logoutErr  error

	logoutCalled bool
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*backend.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) AuthStatus(_ context.Context) (*backend.StatusResponse, error) {
	return f.statusResp, f.statusErr
}

func (f *fakeAuth) Logout(_ context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}

type fakeStore struct {
	token     string
	expiresIn int
	setErr    error
}

func (f *fakeStore) Token() string { return f.token }

func (f *fakeStore) SetCredential(token string, expiresIn int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.token = token
	f.expiresIn = expiresIn
	return nil
}

func (f *fakeStore) ClearCredential() error {
	f.token = ""
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateStartsUnknown(t *testing.T) {
	g := NewGate(&fakeAuth{}, &fakeStore{}, testLogger())
	if g.State() != StateUnknown {
		t.Errorf("State() = %v, want StateUnknown", g.State())
	}
}

func TestInitNoTokenSkipsBackend(t *testing.T) {
	auth := &fakeAuth{statusErr: errors.New("must not be called")}
	g := NewGate(auth, &fakeStore{}, testLogger())

	g.Init(context.Background())
	if g.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want StateUnauthenticated", g.State())
	}
}

func TestInitValidToken(t *testing.T) {
	auth := &fakeAuth{statusResp: &backend.StatusResponse{Authenticated: true}}
	g := NewGate(auth, &fakeStore{token: "tok"}, testLogger())

	g.Init(context.Background())
	if g.State() != StateAuthenticated {
		t.Errorf("State() = %v, want StateAuthenticated", g.State())
	}
}

func TestInitRejectedTokenCleared(t *testing.T) {
	auth := &fakeAuth{statusResp: &backend.StatusResponse{Authenticated: false}}
	store := &fakeStore{token: "stale"}
	g := NewGate(auth, store, testLogger())

	g.Init(context.Background())
	if g.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want StateUnauthenticated", g.State())
	}
	if store.token != "" {
		t.Error("rejected token not cleared from store")
	}
}

func TestInitBackendUnreachable(t *testing.T) {
	auth := &fakeAuth{statusErr: errors.New("connection refused")}
	g := NewGate(auth, &fakeStore{token: "tok"}, testLogger())

	g.Init(context.Background())
	if g.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want StateUnauthenticated when backend is down", g.State())
	}
}

func TestLoginSuccessStoresCredential(t *testing.T) {
	auth := &fakeAuth{loginResp: &backend.LoginResponse{
		Success: true, AccessToken: "new-tok", ExpiresIn: 1800,
	}}
	store := &fakeStore{}
	g := NewGate(auth, store, testLogger())

	if err := g.Login(context.Background(), "ops", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if g.State() != StateAuthenticated {
		t.Errorf("State() = %v", g.State())
	}
	if store.token != "new-tok" || store.expiresIn != 1800 {
		t.Errorf("stored credential = %q/%d", store.token, store.expiresIn)
	}
}

func TestLoginFailureStoresNothing(t *testing.T) {
	tests := []struct {
		name string
		auth *fakeAuth
	}{
		{"backend error", &fakeAuth{loginErr: errors.New("boom")}},
		{"rejected", &fakeAuth{loginResp: &backend.LoginResponse{Success: false}}},
		{"empty token", &fakeAuth{loginResp: &backend.LoginResponse{Success: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			g := NewGate(tt.auth, store, testLogger())
			if err := g.Login(context.Background(), "ops", "bad"); err == nil {
				t.Fatal("Login() error = nil, want error")
			}
			if store.token != "" {
				t.Errorf("credential stored on failed login: %q", store.token)
			}
			if g.State() == StateAuthenticated {
				t.Error("gate opened on failed login")
			}
		})
	}
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("timeout")}
	store := &fakeStore{token: "tok"}
	g := NewGate(auth, store, testLogger())
	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()

	g.Logout(context.Background())
	if !auth.logoutCalled {
		t.Error("backend logout not attempted")
	}
	if store.token != "" {
		t.Error("credential not cleared on logout")
	}
	if g.State() != StateUnauthenticated {
		t.Errorf("State() = %v", g.State())
	}
}

func TestMiddleware(t *testing.T) {
	g := NewGate(&fakeAuth{}, &fakeStore{}, testLogger())
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 while unknown", rec.Code)
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.mu.Unlock()

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/units", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when authenticated", rec.Code)
	}
}
