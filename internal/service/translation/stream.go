package translation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/extractor"
	"github.com/heartmarshall/sentence-lab/internal/provider"
)

// Stream translates sentence and passes every snapshot to emit, in order.
//
// Upstream failures are delivered through emit as one error record, after
// which Stream returns nil. Stream returns an error only for invalid input,
// a failing emit or a cancelled ctx; once ctx is cancelled nothing more is
// emitted.
func (s *Service) Stream(ctx context.Context, sentence string, emit EmitFunc) error {
	text, err := s.prepare(sentence)
	if err != nil {
		return err
	}
	_, err = s.run(ctx, text, newPacer(s.cfg.SnapshotInterval), emit)
	return err
}

// Translate runs a whole stream and returns the final record. Upstream
// failures come back as *Failure, wrapping domain.ErrConfiguration or
// domain.ErrTransport.
func (s *Service) Translate(ctx context.Context, sentence string) (domain.Record, error) {
	text, err := s.prepare(sentence)
	if err != nil {
		return domain.Record{}, err
	}

	last := domain.Record{Original: text}
	failure, err := s.run(ctx, text, nil, func(_ context.Context, rec domain.Record) error {
		last = rec
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	if failure != nil {
		return domain.Record{}, failure
	}
	return last, nil
}

// run drives one upstream stream through a fresh extractor. failure is set
// when the stream ended with an error record.
func (s *Service) run(ctx context.Context, original string, pacer *rate.Limiter, emit EmitFunc) (failure *Failure, err error) {
	ex := extractor.New(original)
	log := s.log.With(slog.String("provider", s.source.Name()))

	if !s.source.Configured() {
		failure = newFailure(fmt.Errorf("%s: %w: api key is not set", s.source.Name(), domain.ErrConfiguration))
		log.ErrorContext(ctx, "upstream api key is not configured")
		return failure, s.fail(ctx, ex, failure, emit)
	}

	start := time.Now()
	stream, err := s.source.Open(ctx, BuildMessages(original))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		failure = newFailure(err)
		log.ErrorContext(ctx, "upstream request failed", slog.String("error", err.Error()))
		return failure, s.fail(ctx, ex, failure, emit)
	}
	defer stream.Close()

	var fragments, malformed int
	for {
		chunk := stream.Recv(ctx)

		switch chunk.Kind {
		case provider.ChunkFragment:
			fragments++
			rec, err := ex.Ingest(chunk.Text)
			if err != nil {
				return nil, err
			}
			log.DebugContext(ctx, "fragment",
				slog.Int("bytes", len(chunk.Text)),
				slog.String("field", ex.Active().String()),
			)
			if err := s.emit(ctx, pacer, emit, rec); err != nil {
				return nil, err
			}

		case provider.ChunkMalformed:
			malformed++
			log.WarnContext(ctx, "malformed fragment skipped", slog.String("error", chunk.Err.Error()))

		case provider.ChunkDone:
			rec, changed, err := ex.Finalize()
			if err != nil {
				return nil, err
			}
			if changed {
				if err := s.emit(ctx, pacer, emit, rec); err != nil {
					return nil, err
				}
			}
			log.InfoContext(ctx, "translation completed",
				slog.Int("fragments", fragments),
				slog.Int("malformed", malformed),
				slog.Int("unclassified_bytes", ex.Unclassified()),
				slog.Duration("duration", time.Since(start)),
			)
			return nil, nil

		case provider.ChunkFailed:
			if ctx.Err() != nil {
				log.DebugContext(ctx, "client went away", slog.Int("fragments", fragments))
				return nil, ctx.Err()
			}
			failure = newFailure(chunk.Err)
			log.ErrorContext(ctx, "upstream stream failed",
				slog.String("error", chunk.Err.Error()),
				slog.Int("fragments", fragments),
				slog.Duration("duration", time.Since(start)),
			)
			return failure, s.fail(ctx, ex, failure, emit)

		default:
			return nil, fmt.Errorf("translation: unexpected chunk kind %s", chunk.Kind)
		}
	}
}

// emit waits for the pacer and hands rec to the sink. Nothing is emitted
// once ctx is done.
func (s *Service) emit(ctx context.Context, pacer *rate.Limiter, emit EmitFunc, rec domain.Record) error {
	if pacer != nil {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(ctx, rec)
}

// fail closes the extractor and emits the terminal error record.
func (s *Service) fail(ctx context.Context, ex *extractor.Extractor, failure *Failure, emit EmitFunc) error {
	rec, err := ex.Fail(failure.Message)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(ctx, rec)
}
