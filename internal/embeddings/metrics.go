package embeddings

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeOK         = "ok"
	outcomeValidation = "validation_error"
	outcomeEmbedding  = "embedding_error"
)

// Metrics holds the collectors shared by instrumented providers.
type Metrics struct {
	requests *prometheus.CounterVec
	texts    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedkit",
			Name:      "embed_requests_total",
			Help:      "Embed calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		texts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedkit",
			Name:      "embedded_texts_total",
			Help:      "Texts successfully embedded, by provider.",
		}, []string{"provider"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embedkit",
			Name:      "embed_duration_seconds",
			Help:      "Latency of Embed calls, by provider.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"provider"}),
	}

	reg.MustRegister(m.requests, m.texts, m.duration)

	return m
}

// Wrap returns a Provider that records every Embed call on p under the given provider label.
// Closing the result closes p when p is an io.Closer.
func (m *Metrics) Wrap(provider string, p Provider) *InstrumentedProvider {
	return &InstrumentedProvider{name: provider, inner: p, metrics: m}
}

// InstrumentedProvider decorates a Provider with Prometheus metrics.
type InstrumentedProvider struct {
	name    string
	inner   Provider
	metrics *Metrics
}

func (p *InstrumentedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	embeddings, err := p.inner.Embed(ctx, texts)
	p.metrics.duration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		p.metrics.requests.WithLabelValues(p.name, outcomeOK).Inc()
		p.metrics.texts.WithLabelValues(p.name).Add(float64(len(texts)))
	case IsValidation(err):
		p.metrics.requests.WithLabelValues(p.name, outcomeValidation).Inc()
	default:
		p.metrics.requests.WithLabelValues(p.name, outcomeEmbedding).Inc()
	}

	return embeddings, err
}

func (p *InstrumentedProvider) Close() error {
	if closer, ok := p.inner.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
