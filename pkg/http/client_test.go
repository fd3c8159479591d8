package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientForwardsCookiesAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/features" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		ck, err := r.Cookie("session")
		if err != nil || ck.Value != "abc" {
			t.Errorf("session cookie not forwarded: %v", err)
		}
		http.SetCookie(w, &http.Cookie{Name: "refreshed", Value: "1"})
		_ = json.NewEncoder(w).Encode(map[string]int{"n": 3})
	}))
	defer srv.Close()

	var observed int
	c := NewClient(WithBaseURL(srv.URL+"/api/"), WithTimeout(time.Second),
		WithObserver(func(method, path string, status int, _ time.Duration) { observed = status }))

	var out struct{ N int }
	resp, err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodGet,
		Path:    "/features",
		Cookies: []*http.Cookie{{Name: "session", Value: "abc"}},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.N != 3 || observed != http.StatusOK {
		t.Fatalf("unexpected result %d / %d", out.N, observed)
	}
	if len(resp.Cookies) != 1 || resp.Cookies[0].Name != "refreshed" {
		t.Fatalf("response cookies not exposed: %v", resp.Cookies)
	}
}

func TestClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("no session"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodPost, Path: "agent/create", Body: map[string]string{"a": "b"}}, nil)
	if !IsUpstreamStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected upstream 401, got %v", err)
	}
}
