package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	contractx "github.com/shukalink/agrolink/agent/contract"
	"github.com/shukalink/agrolink/session"
)

type fakeAgent struct {
	delay time.Duration
	reply func(text string) string
}

func (f *fakeAgent) Process(ctx context.Context, userID string, info contractx.UserInfo, history []contractx.Message, userText string) string {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if f.reply != nil {
		return f.reply(userText)
	}
	return "echo: " + userText
}

func testServer(t *testing.T, cfg Config, agent Agent) (*httptest.Server, session.Store) {
	t.Helper()

	store := session.NewMemoryStore()
	deps := Deps{
		Agent:     agent,
		Store:     store,
		Directory: NewMemoryDirectory(),
		Verifier:  NewHMACVerifier("test-secret"),
	}
	ts := httptest.NewServer(NewRouter(cfg, deps))
	t.Cleanup(ts.Close)
	return ts, store
}

func postWebhook(t *testing.T, ts *httptest.Server, authToken string, form url.Values, sign bool) *http.Response {
	t.Helper()

	endpoint := ts.URL + "/webhook/whatsapp"
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sign {
		req.Header.Set("X-Twilio-Signature", TwilioSignature(authToken, endpoint, form))
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	ts, _ := testServer(t, Config{TwilioAuthToken: "twilio-token", TurnTimeout: time.Second, AllowedOrigin: "*"}, &fakeAgent{})

	form := url.Values{"From": {"whatsapp:+2348012345678"}, "Body": {"hello"}}

	resp := postWebhook(t, ts, "twilio-token", form, false)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unsigned request status = %d, want 403", resp.StatusCode)
	}

	resp = postWebhook(t, ts, "wrong-token", form, true)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("badly signed request status = %d, want 403", resp.StatusCode)
	}
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	t.Parallel()

	ts, store := testServer(t, Config{TwilioAuthToken: "twilio-token", TurnTimeout: time.Second, AllowedOrigin: "*"}, &fakeAgent{
		reply: func(text string) string { return "Plant maize at the start of the rains." },
	})

	form := url.Values{
		"From":        {"whatsapp:+2348012345678"},
		"Body":        {"when do I plant maize?"},
		"ProfileName": {"Amina"},
	}
	resp := postWebhook(t, ts, "twilio-token", form, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/xml") {
		t.Fatalf("content type = %q, want text/xml", ct)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Message>") {
		t.Fatalf("not a TwiML document: %q", body)
	}
	if !strings.Contains(body, "start of the rains") {
		t.Fatalf("reply missing from TwiML: %q", body)
	}

	// The exchange lands in a session keyed to the phone-derived user.
	userID := WhatsAppUserID("+2348012345678")
	sessionID, err := store.ActiveSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("ActiveSession() error = %v", err)
	}
	turns, err := store.History(context.Background(), userID, sessionID, 0)
	if err != nil || len(turns) != 2 {
		t.Fatalf("history = %d turns, err %v; want 2", len(turns), err)
	}
}

func TestWebhookMenuKeyword(t *testing.T) {
	t.Parallel()

	ts, _ := testServer(t, Config{TwilioAuthToken: "", TurnTimeout: time.Second, AllowedOrigin: "*"}, &fakeAgent{})

	form := url.Values{
		"From":        {"whatsapp:+2348012345678"},
		"Body":        {"menu"},
		"ProfileName": {"Amina"},
	}
	// No auth token configured, so no signature required.
	resp := postWebhook(t, ts, "", form, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "Farming Advice") || !strings.Contains(body, "Amina") {
		t.Fatalf("menu reply missing content: %q", body)
	}
}

func TestWebhookTurnTimeout(t *testing.T) {
	t.Parallel()

	ts, _ := testServer(t, Config{TurnTimeout: 50 * time.Millisecond, AllowedOrigin: "*"}, &fakeAgent{delay: time.Second})

	form := url.Values{"From": {"whatsapp:+2348012345678"}, "Body": {"a very hard question"}}
	resp := postWebhook(t, ts, "", form, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "taking too long") {
		t.Fatalf("timeout reply missing: %q", body)
	}
}

func TestTwilioSignatureOrdersParams(t *testing.T) {
	t.Parallel()

	a := TwilioSignature("tok", "https://example.com/webhook", url.Values{"B": {"2"}, "A": {"1"}})
	b := TwilioSignature("tok", "https://example.com/webhook", url.Values{"A": {"1"}, "B": {"2"}})
	if a != b {
		t.Fatal("signature must be independent of map iteration order")
	}
	if c := TwilioSignature("tok", "https://example.com/other", url.Values{"A": {"1"}, "B": {"2"}}); c == a {
		t.Fatal("signature must bind the URL")
	}
}
