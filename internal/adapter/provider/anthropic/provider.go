// Package anthropic streams translations from the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

const (
	defaultModel     = "claude-haiku-4-5"
	defaultMaxTokens = 1024
)

// Options configures the Messages API client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	IdleTimeout time.Duration
	MaxTokens   int
}

// Provider opens streaming Messages API calls.
type Provider struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
	timeout   time.Duration
	idle      time.Duration
	log       *slog.Logger
}

// NewProvider creates a Provider. Retries are disabled: a failed stream is
// reported to the caller, never replayed.
func NewProvider(opts Options, logger *slog.Logger) *Provider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	return &Provider{
		client:    anthropic.NewClient(reqOpts...),
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: int64(opts.MaxTokens),
		timeout:   opts.Timeout,
		idle:      opts.IdleTimeout,
		log:       logger.With("adapter", "anthropic"),
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Configured() bool { return p.apiKey != "" }

// Open starts a streaming Messages call. System messages become the system
// prompt; the rest are sent as conversation turns.
func (p *Provider) Open(ctx context.Context, messages []provider.Message) (provider.Stream, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("anthropic: %w: api key is not set", domain.ErrConfiguration)
	}

	params := buildParams(p.model, p.maxTokens, messages)

	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}

	p.log.DebugContext(ctx, "anthropic request",
		slog.String("model", p.model),
		slog.Int("messages", len(params.Messages)),
	)

	es := p.client.Messages.NewStreaming(sctx, params)
	if err := es.Err(); err != nil {
		es.Close()
		cancel()
		return nil, mapError(sctx, err)
	}

	return newStream(sctx, cancel, es, p.idle, p.log), nil
}

func buildParams(model string, maxTokens int64, messages []provider.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
	}
	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return params
}

// mapError classifies an SDK error: HTTP failures become UpstreamError,
// everything else is a transport error.
func mapError(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("anthropic: %w: %w", domain.ErrTransport, cerr)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &provider.UpstreamError{Status: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return fmt.Errorf("anthropic: %w: %w", domain.ErrTransport, err)
}
