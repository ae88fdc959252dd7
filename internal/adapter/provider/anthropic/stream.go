package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

// eventStream is the part of the SDK stream the adapter relies on.
type eventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

type eventResult struct {
	event anthropic.MessageStreamEventUnion
	end   bool
	err   error
}

type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	es     eventStream
	idle   time.Duration
	log    *slog.Logger

	events    chan eventResult
	done      chan struct{}
	closeOnce sync.Once

	terminal *provider.Chunk
}

func newStream(ctx context.Context, cancel context.CancelFunc, es eventStream, idle time.Duration, logger *slog.Logger) *stream {
	s := &stream{
		ctx:    ctx,
		cancel: cancel,
		es:     es,
		idle:   idle,
		log:    logger,
		events: make(chan eventResult),
		done:   make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *stream) read() {
	for s.es.Next() {
		select {
		case s.events <- eventResult{event: s.es.Current()}:
		case <-s.done:
			return
		}
	}
	select {
	case s.events <- eventResult{end: true, err: s.es.Err()}:
	case <-s.done:
	}
}

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
		select {
		case <-ctx.Done():
			return s.finish(provider.Failed(fmt.Errorf("anthropic: %w: %w", domain.ErrTransport, ctx.Err())))
		case <-s.ctx.Done():
			return s.finish(provider.Failed(fmt.Errorf("anthropic: %w: %w", domain.ErrTransport, s.ctx.Err())))
		case <-idle:
			return s.finish(provider.Failed(provider.ErrIdleTimeout))
		case r := <-s.events:
			if r.end {
				return s.finish(s.endOfEvents(ctx, r.err))
			}
			if chunk, ok := decodeEvent(r.event); ok {
				if chunk.Terminal() {
					return s.finish(chunk)
				}
				return chunk
			}
			if timer != nil {
				timer.Reset(s.idle)
			}
		}
	}
}

func (s *stream) endOfEvents(ctx context.Context, err error) provider.Chunk {
	if err != nil {
		return provider.Failed(mapError(s.ctx, err))
	}
	s.log.WarnContext(ctx, "anthropic stream ended without message_stop")
	return provider.Done()
}

func (s *stream) finish(c provider.Chunk) provider.Chunk {
	s.terminal = &c
	return c
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		err = s.es.Close()
	})
	return err
}

// decodeEvent keeps text deltas and the stop event; every other event type
// is skipped.
func decodeEvent(event anthropic.MessageStreamEventUnion) (provider.Chunk, bool) {
	switch ev := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && d.Text != "" {
			return provider.Fragment(d.Text), true
		}
	case anthropic.MessageStopEvent:
		return provider.Done(), true
	}
	return provider.Chunk{}, false
}
