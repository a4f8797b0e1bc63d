package embeddings

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every remote embedding request.
const DefaultTimeout = 60 * time.Second

// newHTTPClient returns a client with a request timeout and a traced transport.
// Without a configured tracer provider the tracing is a no-op.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func trimBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// isTimeout reports whether err came from a client timeout or an expired deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
