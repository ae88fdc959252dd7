package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/sentence-lab/internal/domain"
	"github.com/heartmarshall/sentence-lab/internal/service/translation"
)

// maxRequestBody caps the JSON request body.
const maxRequestBody = 64 << 10

type translator interface {
	Stream(ctx context.Context, sentence string, emit translation.EmitFunc) error
	Translate(ctx context.Context, sentence string) (domain.Record, error)
}

// TranslateHandler serves the translation endpoints.
type TranslateHandler struct {
	svc translator
	log *slog.Logger
}

// NewTranslateHandler creates a TranslateHandler.
func NewTranslateHandler(svc translator, logger *slog.Logger) *TranslateHandler {
	return &TranslateHandler{svc: svc, log: logger.With("handler", "translate")}
}

// TranslateRequest is the JSON body of both POST endpoints.
type TranslateRequest struct {
	Sentence string `json:"sentence"`
}

// ErrorResponse is the JSON body of every non-stream error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Stream relays snapshots as server-sent events. POST reads the sentence
// from a JSON body; GET reads the "sentence" query parameter so that
// EventSource clients can connect directly.
func (h *TranslateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sentence, err := h.sentence(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	ew := newEventWriter(w)
	err = h.svc.Stream(ctx, sentence, func(_ context.Context, rec domain.Record) error {
		return ew.send(rec)
	})

	switch {
	case err == nil:
		if !ew.started {
			if err := ew.start(); err != nil {
				h.log.WarnContext(ctx, "open event stream", slog.String("error", err.Error()))
			}
		}
	case errors.Is(err, domain.ErrValidation) && !ew.started:
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case ctx.Err() != nil:
		h.log.DebugContext(ctx, "client disconnected", slog.Int("events", ew.sent))
	default:
		h.log.ErrorContext(ctx, "event stream aborted",
			slog.String("error", err.Error()),
			slog.Int("events", ew.sent),
		)
		if !ew.started {
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// Process returns the final record of a whole stream as JSON.
func (h *TranslateHandler) Process(w http.ResponseWriter, r *http.Request) {
	sentence, err := h.sentence(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	rec, err := h.svc.Translate(ctx, sentence)
	if err != nil {
		h.writeTranslateError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *TranslateHandler) writeTranslateError(ctx context.Context, w http.ResponseWriter, err error) {
	var failure *translation.Failure
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.As(err, &failure):
		status := http.StatusBadGateway
		if errors.Is(failure, domain.ErrConfiguration) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, failure.Message)
	case ctx.Err() != nil:
		h.log.DebugContext(ctx, "client disconnected")
	default:
		h.log.ErrorContext(ctx, "translate failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

var errBadBody = errors.New("request body must be JSON like {\"sentence\": \"...\"}")

func (h *TranslateHandler) sentence(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("sentence"), nil
	}

	var req TranslateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", errors.New("request body too large")
		}
		return "", errBadBody
	}
	return req.Sentence, nil
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) && len(ve.Errors) > 0 {
		return ve.Errors[0].Field + ": " + ve.Errors[0].Message
	}
	return "invalid request"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
