package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/sentence-lab/internal/config"
	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type streamSource interface {
	Name() string
	Configured() bool
	Open(ctx context.Context, messages []provider.Message) (provider.Stream, error)
}

// EmitFunc receives every snapshot of a stream. An error stops the stream;
// it normally means the client has gone away.
type EmitFunc func(ctx context.Context, rec domain.Record) error

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service turns a sentence into a stream of record snapshots.
type Service struct {
	log    *slog.Logger
	source streamSource
	cfg    config.StreamConfig
}

// NewService creates a new translation service.
func NewService(logger *slog.Logger, source streamSource, cfg config.StreamConfig) *Service {
	return &Service{
		log:    logger.With("service", "translation"),
		source: source,
		cfg:    cfg,
	}
}

// Name returns the upstream provider name.
func (s *Service) Name() string { return s.source.Name() }

// Configured reports whether the upstream credential is present.
func (s *Service) Configured() bool { return s.source.Configured() }

// ---------------------------------------------------------------------------
// Caller-facing failures
// ---------------------------------------------------------------------------

const (
	msgNotConfigured = "Translation API key is not configured."
	msgTimeout       = "Upstream request timed out."
	msgFailed        = "Upstream request failed."
)

// Failure is a terminal upstream failure. Message is safe to show to the
// caller; Err keeps the cause for logs and status mapping.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message + ": " + f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// newFailure classifies err. Causes that carry neither sentinel are
// treated as transport errors.
func newFailure(err error) *Failure {
	if !errors.Is(err, domain.ErrConfiguration) && !errors.Is(err, domain.ErrTransport) {
		err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return &Failure{Message: callerMessage(err), Err: err}
}

func callerMessage(err error) string {
	if errors.Is(err, domain.ErrConfiguration) {
		return msgNotConfigured
	}
	if provider.IsTimeout(err) {
		return msgTimeout
	}
	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		return fmt.Sprintf("Upstream returned HTTP %d.", ue.Status)
	}
	return msgFailed
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// prepare normalizes and validates the input sentence.
func (s *Service) prepare(sentence string) (string, error) {
	text := domain.NormalizeSentence(sentence)
	if text == "" {
		return "", domain.NewValidationError("sentence", "required")
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxSentenceLength {
		return "", domain.NewValidationError("sentence", fmt.Sprintf("too long (max %d characters)", s.cfg.MaxSentenceLength))
	}
	return text, nil
}

// newPacer returns a limiter spacing snapshots by interval, or nil when
// pacing is off. The first snapshot is never delayed.
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
