package deepseek

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

const (
	doneSentinel = "[DONE]"
	maxLineSize  = 1 << 20
)

type lineResult struct {
	line string
	err  error
}

// stream decodes a server-sent events body. A reader goroutine scans lines
// so that Recv can wait on the caller context and the timers at the same
// time as on the network.
type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	idle   time.Duration
	log    *slog.Logger

	lines     chan lineResult
	done      chan struct{}
	closeOnce sync.Once

	terminal *provider.Chunk
}

func newStream(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser, idle time.Duration, logger *slog.Logger) *stream {
	s := &stream{
		ctx:    ctx,
		cancel: cancel,
		body:   body,
		idle:   idle,
		log:    logger,
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *stream) read() {
	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	for scanner.Scan() {
		select {
		case s.lines <- lineResult{line: scanner.Text()}:
		case <-s.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case s.lines <- lineResult{err: err}:
	case <-s.done:
	}
}

// Recv returns the next chunk. Lines that carry no text are consumed
// without returning; each one restarts the idle timer.
func (s *stream) Recv(ctx context.Context) provider.Chunk {
	if s.terminal != nil {
		return *s.terminal
	}

	var (
		idle  <-chan time.Time
		timer *time.Timer
	)
	if s.idle > 0 {
		timer = time.NewTimer(s.idle)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		if chunk, ok := s.next(ctx, idle); ok {
			return chunk
		}
		if timer != nil {
			timer.Reset(s.idle)
		}
	}
}

// next waits for one line. ok is false when the line was skipped.
func (s *stream) next(ctx context.Context, idle <-chan time.Time) (provider.Chunk, bool) {
	select {
	case <-ctx.Done():
		return s.finish(provider.Failed(fmt.Errorf("deepseek: %w: %w", domain.ErrTransport, ctx.Err()))), true
	case <-s.ctx.Done():
		return s.finish(provider.Failed(fmt.Errorf("deepseek: %w: %w", domain.ErrTransport, s.ctx.Err()))), true
	case <-idle:
		return s.finish(provider.Failed(provider.ErrIdleTimeout)), true
	case lr := <-s.lines:
		if lr.err != nil {
			return s.finish(s.endOfBody(ctx, lr.err)), true
		}
		chunk, ok := decodeLine(lr.line)
		if !ok {
			return provider.Chunk{}, false
		}
		if chunk.Terminal() {
			return s.finish(chunk), true
		}
		return chunk, true
	}
}

func (s *stream) endOfBody(ctx context.Context, err error) provider.Chunk {
	// Reads fail once the request context is gone; report the cause.
	if cerr := s.ctx.Err(); cerr != nil {
		return provider.Failed(fmt.Errorf("deepseek: %w: %w", domain.ErrTransport, cerr))
	}
	if errors.Is(err, io.EOF) {
		s.log.WarnContext(ctx, "deepseek stream ended without done sentinel")
		return provider.Done()
	}
	return provider.Failed(fmt.Errorf("deepseek: %w: read stream: %w", domain.ErrTransport, err))
}

func (s *stream) finish(c provider.Chunk) provider.Chunk {
	s.terminal = &c
	return c
}

// Close stops the reader, aborts the request and releases the body.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		err = s.body.Close()
	})
	return err
}

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// decodeLine maps one line of the event stream to a chunk. ok is false for
// comments, blank lines, non-data fields and deltas without text.
func decodeLine(line string) (provider.Chunk, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, "data:") {
		return provider.Chunk{}, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return provider.Chunk{}, false
	}
	if payload == doneSentinel {
		return provider.Done(), true
	}

	var ev streamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return provider.Malformed(fmt.Errorf("%w: %w", domain.ErrMalformedFragment, err)), true
	}
	if ev.Error != nil {
		return provider.Failed(fmt.Errorf("deepseek: %w: %s", domain.ErrTransport, ev.Error.Message)), true
	}

	var text strings.Builder
	for _, c := range ev.Choices {
		text.WriteString(c.Delta.Content)
	}
	if text.Len() == 0 {
		return provider.Chunk{}, false
	}
	return provider.Fragment(text.String()), true
}
