// Package server exposes the conversational backend over three surfaces:
// a websocket chat, a session REST API, and the WhatsApp webhook.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	contractx "github.com/shukalink/agrolink/agent/contract"
	"github.com/shukalink/agrolink/session"
)

// Deps are the injected collaborators behind the HTTP surface.
type Deps struct {
	Agent       Agent
	Store       session.Store
	Directory   UserDirectory
	Transcriber contractx.Transcriber
	Verifier    TokenVerifier
}

// NewRouter wires every route. The webhook stays public (Twilio signs its
// requests instead); everything under /api and the websocket require a
// token.
func NewRouter(cfg Config, deps Deps) chi.Router {
	mgr := NewConnManager()

	chatHandler := NewChatHandler(deps.Agent, deps.Store, deps.Directory, deps.Transcriber, mgr, cfg)
	wsHandler := NewChatSocketHandler(deps.Agent, deps.Store, deps.Directory, mgr, cfg)
	waHandler := NewWhatsAppHandler(deps.Agent, deps.Store, deps.Directory, deps.Transcriber, cfg)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/health"))
	r.Use(corsMiddleware(cfg.AllowedOrigin))

	r.Route("/webhook/whatsapp", func(r chi.Router) {
		r.Get("/", waHandler.Status)
		r.Post("/", waHandler.Webhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(deps.Verifier))
		r.Route("/api/chat", chatHandler.RegisterRoutes)
		r.Get("/ws/chat", wsHandler.ServeHTTP)
	})

	return r
}

// NewHTTPServer applies the shared timeouts. WriteTimeout stays zero so
// long-lived websocket connections are not cut mid-session.
func NewHTTPServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowedOrigin == "*" || allowedOrigin == origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
