package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"google.golang.org/grpc"
)

var (
	StoreRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_store_requests_total",
		Help: "Vector store requests by store, operation and outcome",
	}, []string{"store", "op", "outcome"})

	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vecdemo_store_duration_seconds",
		Help:    "Vector store request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"store", "op"})

	EmbedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_embed_requests_total",
		Help: "Embedding calls by provider and outcome",
	}, []string{"provider", "outcome"})

	EmbedTexts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_embed_texts_total",
		Help: "Texts sent to the embedding model",
	}, []string{"provider"})

	// Slower buckets: embedding a batch against a local model takes seconds.
	EmbedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vecdemo_embed_duration_seconds",
		Help:    "Embedding call latency",
		Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	PointsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_points_loaded_total",
		Help: "Points written by bulk loads",
	}, []string{"store", "collection"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_embed_cache_lookups_total",
		Help: "Embedding cache lookups by result",
	}, []string{"result"})

	GRPCCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecdemo_grpc_calls_total",
		Help: "Outgoing gRPC calls by method and outcome",
	}, []string{"method", "outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore records one store round-trip started at start.
func ObserveStore(store, op string, start time.Time, err error) {
	StoreRequests.WithLabelValues(store, op, outcome(err)).Inc()
	StoreDuration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
}

// ObserveEmbed records one embedding call of n texts started at start.
func ObserveEmbed(provider string, n int, start time.Time, err error) {
	EmbedRequests.WithLabelValues(provider, outcome(err)).Inc()
	EmbedDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err == nil {
		EmbedTexts.WithLabelValues(provider).Add(float64(n))
	}
}

// UnaryClientInterceptor counts outgoing unary gRPC calls.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		GRPCCalls.WithLabelValues(method, outcome(err)).Inc()
		return err
	}
}

// Push sends the default registry to a Pushgateway under the given job name.
// An empty gateway URL is a no-op.
func Push(gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	if job == "" {
		job = "vecdemo"
	}
	return push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push()
}
