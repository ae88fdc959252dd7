package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

const (
	defaultBaseURL  = "https://api.deepseek.com"
	defaultChatPath = "/chat/completions"
	defaultModel    = "deepseek-chat"

	// maxErrorBody bounds how much of a non-2xx body is read into the error.
	maxErrorBody = 4 << 10
)

// Options configures the OpenAI-compatible chat completions endpoint.
type Options struct {
	BaseURL  string
	ChatPath string // may be a full URL, which then overrides BaseURL
	APIKey   string
	Model    string

	// Timeout bounds the whole stream. IdleTimeout bounds the gap between
	// two lines of the event stream. Zero disables either.
	Timeout     time.Duration
	IdleTimeout time.Duration

	MaxTokens int
}

// Provider streams chat completions from DeepSeek or any API speaking the
// same server-sent events dialect.
type Provider struct {
	url        string
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
	idle       time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider. A missing API key is not an error here:
// Configured reports it and Open refuses to connect.
func NewProvider(opts Options, logger *slog.Logger) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ChatPath == "" {
		opts.ChatPath = defaultChatPath
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}

	return &Provider{
		url:       joinURL(opts.BaseURL, opts.ChatPath),
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		idle:      opts.IdleTimeout,
		// No client timeout: the stream is bounded by its context instead.
		httpClient: &http.Client{},
		log:        logger.With("adapter", "deepseek"),
	}
}

// joinURL joins base and path with exactly one slash. An absolute path is
// returned as is.
func joinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (p *Provider) Name() string { return "deepseek" }

func (p *Provider) Configured() bool { return p.apiKey != "" }

type chatRequest struct {
	Model     string             `json:"model"`
	Messages  []provider.Message `json:"messages"`
	Stream    bool               `json:"stream"`
	MaxTokens int                `json:"max_tokens,omitempty"`
}

// Open sends the chat request and returns the live event stream. The stream
// is bound to ctx: cancelling ctx aborts the upstream request.
func (p *Provider) Open(ctx context.Context, messages []provider.Message) (provider.Stream, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("deepseek: %w: api key is not set", domain.ErrConfiguration)
	}

	body, err := json.Marshal(chatRequest{
		Model:     p.model,
		Messages:  messages,
		Stream:    true,
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("deepseek: encode request: %w", err)
	}

	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}

	req, err := http.NewRequestWithContext(sctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("deepseek: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	p.log.DebugContext(ctx, "deepseek request",
		slog.String("url", p.url),
		slog.String("model", p.model),
		slog.Int("messages", len(messages)),
	)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("deepseek: %w: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, &provider.UpstreamError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	return newStream(sctx, cancel, resp.Body, p.idle, p.log), nil
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// readErrorBody extracts the upstream error message, falling back to a
// trimmed excerpt of the raw body.
func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}

	var envelope struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
