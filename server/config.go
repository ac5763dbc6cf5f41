package server

import "time"

// Config for the HTTP surface: the websocket chat, the session REST API,
// and the WhatsApp webhook.
type Config struct {
	Port            string        `envconfig:"PORT" split_words:"true" default:"8000"`
	AllowedOrigin   string        `envconfig:"ALLOWED_ORIGIN" split_words:"true" default:"*"`
	AuthSecret      string        `envconfig:"AUTH_SECRET" split_words:"true"`
	TwilioAuthToken string        `envconfig:"TWILIO_AUTH_TOKEN" split_words:"true"`
	PublicBaseURL   string        `envconfig:"PUBLIC_BASE_URL" split_words:"true"`
	TurnTimeout     time.Duration `envconfig:"TURN_TIMEOUT" split_words:"true" default:"30s"`
	Dev             bool          `envconfig:"DEV" split_words:"true" default:"false"`
}
