package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	v := NewHMACVerifier("test-secret")
	token := SignToken("test-secret", "user-42")

	userID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("userID = %q, want user-42", userID)
	}
}

func TestTokenRejection(t *testing.T) {
	t.Parallel()

	v := NewHMACVerifier("test-secret")

	cases := map[string]string{
		"wrong secret":  SignToken("other-secret", "user-42"),
		"swapped user":  "user-99." + SignToken("test-secret", "user-42")[len("user-42."):],
		"no separator":  "user-42",
		"empty user id": SignToken("test-secret", ""),
	}
	for name, token := range cases {
		token := token
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Verify(token); err == nil {
				t.Fatalf("Verify(%q) accepted a bad token", token)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	var sawUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := authMiddleware(NewHMACVerifier("test-secret"))(next)

	// No token at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/sessions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	// Bearer header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+SignToken("test-secret", "user-7"))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawUserID != "user-7" {
		t.Fatalf("bearer auth: status = %d, user = %q", rec.Code, sawUserID)
	}

	// Query parameter, as used by websocket upgrades.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ws/chat?token="+SignToken("test-secret", "user-8"), nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sawUserID != "user-8" {
		t.Fatalf("query auth: status = %d, user = %q", rec.Code, sawUserID)
	}
}
