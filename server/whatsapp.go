package server

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/shukalink/agrolink/agent/contract"
	"github.com/shukalink/agrolink/session"
)

const (
	voiceNotUnderstoodReply = "Sorry, I couldn't understand the voice message. Could you please send a text message instead?"
	voiceFailedReply        = "Sorry, there was an issue processing your voice message. Please try sending a text message."
)

// WhatsAppHandler terminates the Twilio messaging webhook: signature
// validation, sender enrollment, optional voice transcription, one agent
// turn, TwiML reply.
type WhatsAppHandler struct {
	agent       Agent
	store       session.Store
	directory   UserDirectory
	transcriber contractx.Transcriber
	authToken   string
	baseURL     string
	turnTimeout time.Duration
	log         zerolog.Logger
}

func NewWhatsAppHandler(agent Agent, store session.Store, directory UserDirectory, transcriber contractx.Transcriber, cfg Config) *WhatsAppHandler {
	return &WhatsAppHandler{
		agent:       agent,
		store:       store,
		directory:   directory,
		transcriber: transcriber,
		authToken:   cfg.TwilioAuthToken,
		baseURL:     strings.TrimRight(cfg.PublicBaseURL, "/"),
		turnTimeout: cfg.TurnTimeout,
		log:         log.With().Str("component", "whatsapp").Logger(),
	}
}

// Status responds to webhook verification probes.
func (h *WhatsAppHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "whatsapp webhook active"})
}

func (h *WhatsAppHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	if h.authToken != "" {
		signature := r.Header.Get("X-Twilio-Signature")
		if !h.validSignature(r, signature) {
			h.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	phone := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	body := r.PostFormValue("Body")
	profileName := r.PostFormValue("ProfileName")
	mediaURL := r.PostFormValue("MediaUrl0")
	mediaType := r.PostFormValue("MediaContentType0")

	if phone == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID, info := h.directory.EnsureFromPhone(ctx, phone, profileName)

	if mediaURL != "" && isAudioMedia(mediaType) {
		if h.transcriber == nil {
			writeTwiML(w, voiceFailedReply)
			return
		}
		text, err := h.transcriber.TranscribeURL(ctx, mediaURL)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("voice note transcription failed")
			writeTwiML(w, voiceFailedReply)
			return
		}
		if text == "" {
			writeTwiML(w, voiceNotUnderstoodReply)
			return
		}
		body = text
	}

	if isMenuKeyword(body) {
		writeTwiML(w, menuReply(info))
		return
	}

	reply := h.converse(r, userID, info, body)
	writeTwiML(w, reply)
}

func (h *WhatsAppHandler) converse(r *http.Request, userID string, info contractx.UserInfo, body string) string {
	ctx := r.Context()

	sessionID, err := h.store.ActiveSession(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		sessionID, err = h.store.GetOrCreate(ctx, userID, "")
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("session resolution failed")
		return voiceFailedReply
	}

	turns, err := h.store.History(ctx, userID, sessionID, session.DefaultWindow)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("history load failed")
		turns = nil
	}

	reply := runTurn(ctx, h.agent, h.turnTimeout, userID, info, session.ToMessages(turns), body)

	if err := h.store.AppendExchange(ctx, userID, sessionID, body, reply); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("exchange persistence failed")
	}
	return reply
}

// validSignature checks X-Twilio-Signature: base64(HMAC-SHA1(token, url +
// concatenated sorted form key/value pairs)).
func (h *WhatsAppHandler) validSignature(r *http.Request, signature string) bool {
	if signature == "" {
		return false
	}
	want := TwilioSignature(h.authToken, h.requestURL(r), r.PostForm)
	return subtle.ConstantTimeCompare([]byte(signature), []byte(want)) == 1
}

// requestURL reconstructs the public URL Twilio signed. Behind a proxy the
// request's own scheme and host are wrong, so a configured base URL wins.
func (h *WhatsAppHandler) requestURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL + r.URL.RequestURI()
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// TwilioSignature computes the webhook signature for a URL and form body.
func TwilioSignature(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func isAudioMedia(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "audio") || strings.Contains(ct, "voice")
}

func isMenuKeyword(body string) bool {
	switch strings.ToLower(strings.TrimSpace(body)) {
	case "start", "menu", "help":
		return true
	}
	return false
}

func menuReply(info contractx.UserInfo) string {
	name := info.Name
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	b.WriteString("*AgroLink* \n\n")
	b.WriteString("Hello " + name + "!\n\n")
	b.WriteString("I'm your AI assistant. I can help you with:\n\n")
	b.WriteString("*Farming Advice* - Crops, pests, soil, fertilizer\n")
	b.WriteString("*Logistics* - Transport and delivery\n")
	b.WriteString("*Payments* - Transactions and status\n\n")
	b.WriteString("Just ask me anything in plain language!\n\n")
	b.WriteString("_Example: \"How do I treat maize pests?\" or \"I need transport for 50 bags\"_")
	return b.String()
}
