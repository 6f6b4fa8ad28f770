package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestRequestAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"authenticated": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok-abc"), time.Second)
	resp, err := c.AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus() error = %v", err)
	}
	if !resp.Authenticated {
		t.Error("Authenticated = false, want true")
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, want Bearer tok-abc", gotAuth)
	}
}

func TestRequestNoTokenNoHeader(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""), time.Second)
	if _, err := c.AuthStatus(context.Background()); err != nil {
		t.Fatalf("AuthStatus() error = %v", err)
	}
	if sawHeader {
		t.Error("Authorization header sent without a token")
	}
}

func TestUnauthorizedInvokesHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("stale"), time.Second)
	var hookCalled bool
	c.OnUnauthorized(func() { hookCalled = true })

	_, err := c.AuthStatus(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if !hookCalled {
		t.Error("OnUnauthorized hook not invoked on 401")
	}
}

func TestErrorBodyDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "month_ref is required"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""), time.Second)
	_, err := c.Execute(context.Background(), &ExecuteRequest{})
	if err == nil {
		t.Fatal("Execute() error = nil, want API error")
	}
	if got := err.Error(); got != "API error: month_ref is required" {
		t.Errorf("error = %q", got)
	}
}

func TestErrorBodyUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""), time.Second)
	_, err := c.GetLogStats(context.Background())
	if err == nil || err.Error() != "HTTP 502" {
		t.Errorf("error = %v, want HTTP 502", err)
	}
}

func TestExecuteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process/execute" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{
			"success": true,
			"unit": "Norte Shopping",
			"region": "RJ",
			"month": "2024-11",
			"html_path": "/out/Norte_Shopping_2024-11.html",
			"rows_count": 42,
			"emails_sent_to": ["gestor@exemplo.com"]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"), time.Second)
	resp, err := c.Execute(context.Background(), &ExecuteRequest{
		Region: "RJ", Unit: "Norte Shopping", Month: "2024-11",
		SendEmail: true, MandatoryCc: "cc@exemplo.com",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success || resp.RowsCount != 42 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.EmailsSentTo) != 1 || resp.EmailsSentTo[0] != "gestor@exemplo.com" {
		t.Errorf("EmailsSentTo = %v", resp.EmailsSentTo)
	}
}

func TestListLogsQueryPassthrough(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"items": [], "total": 0, "skip": 20, "limit": 10}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""), time.Second)
	q := url.Values{}
	q.Set("region", "RJ")
	q.Set("limit", "10")
	q.Set("skip", "20")
	resp, err := c.ListLogs(context.Background(), q)
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if gotQuery.Get("region") != "RJ" || gotQuery.Get("skip") != "20" {
		t.Errorf("query = %v", gotQuery)
	}
	if resp.Skip != 20 {
		t.Errorf("Skip = %d, want 20", resp.Skip)
	}
}

func TestPreviewContentRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preview/files/Norte_Shopping_2024-11.html" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"), time.Second)
	html, err := c.PreviewContent(context.Background(), "Norte_Shopping_2024-11.html")
	if err != nil {
		t.Fatalf("PreviewContent() error = %v", err)
	}
	if html != "<html><body>ok</body></html>" {
		t.Errorf("content = %q", html)
	}
}
