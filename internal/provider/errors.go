package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/heartmarshall/sentence-lab/internal/domain"
)

// ErrIdleTimeout is returned when the upstream sends nothing for longer
// than the configured idle timeout.
var ErrIdleTimeout = fmt.Errorf("%w: upstream idle timeout", domain.ErrTransport)

// UpstreamError is a non-2xx answer from the upstream API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream: status %d", e.Status)
	}
	return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return domain.ErrTransport }

// Timeout reports whether the status itself signals a timeout.
func (e *UpstreamError) Timeout() bool {
	return e.Status == http.StatusRequestTimeout || e.Status == http.StatusGatewayTimeout
}

// IsTimeout reports whether err was caused by a deadline: the request
// context, the idle timer, a network timeout, or a 408/504 from upstream.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrIdleTimeout) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
