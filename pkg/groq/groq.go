package groq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Config for Groq's OpenAI-compatible API, covering both chat completions
// and Whisper transcription.
type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1"`
	APIKey       string        `envconfig:"API_KEY" split_words:"true"`
	WhisperModel string        `envconfig:"WHISPER_MODEL" split_words:"true" default:"whisper-large-v3-turbo"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client wraps the OpenAI SDK pointed at Groq. A nil Client means the
// provider is not configured; callers degrade to their fallback behavior.
type Client struct {
	api          *openaisdk.Client
	httpClient   *http.Client
	whisperModel string
}

// NewClient returns nil when no API key is configured.
func NewClient(cfg Config) *Client {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	api := openaisdk.NewClient(opts...)
	return &Client{
		api:          &api,
		httpClient:   &http.Client{Timeout: timeout},
		whisperModel: strings.TrimSpace(cfg.WhisperModel),
	}
}

// API exposes the underlying SDK client for callers that need the full
// chat-completions surface (tool calling).
func (c *Client) API() *openaisdk.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Complete runs a single system+user exchange and returns the text reply.
func (c *Client) Complete(ctx context.Context, model string, temperature float64, system, user string) (string, error) {
	if c == nil || c.api == nil {
		return "", fmt.Errorf("groq: client is not configured")
	}

	resp, err := c.api.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("groq: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts an audio stream to text via Whisper.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if c == nil || c.api == nil {
		return "", fmt.Errorf("groq: client is not configured")
	}
	if filename == "" {
		filename = "audio.ogg"
	}

	resp, err := c.api.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(audio, filename, "application/octet-stream"),
		Model: openaisdk.AudioModel(c.whisperModel),
	})
	if err != nil {
		return "", fmt.Errorf("groq: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// TranscribeURL downloads a voice note and transcribes it. Messaging
// channels deliver media as short-lived URLs.
func (c *Client) TranscribeURL(ctx context.Context, audioURL string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("groq: client is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("groq: build media request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq: download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq: media download status=%d", resp.StatusCode)
	}
	return c.Transcribe(ctx, resp.Body, "voice-note.ogg")
}
