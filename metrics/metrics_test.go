package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
)

func TestObserveStore(t *testing.T) {
	before := testutil.ToFloat64(StoreRequests.WithLabelValues("test", "search", "error"))
	ObserveStore("test", "search", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(StoreRequests.WithLabelValues("test", "search", "error"))
	if after-before != 1 {
		t.Fatalf("expected error counter to grow by 1, got %v", after-before)
	}
}

func TestObserveEmbed_CountsTextsOnSuccess(t *testing.T) {
	before := testutil.ToFloat64(EmbedTexts.WithLabelValues("unit"))
	ObserveEmbed("unit", 5, time.Now(), nil)
	ObserveEmbed("unit", 7, time.Now(), errors.New("down"))
	after := testutil.ToFloat64(EmbedTexts.WithLabelValues("unit"))
	if after-before != 5 {
		t.Fatalf("expected 5 texts, got %v", after-before)
	}
}

func TestUnaryClientInterceptor(t *testing.T) {
	interceptor := UnaryClientInterceptor()
	method := "/qdrant.Points/Upsert"
	before := testutil.ToFloat64(GRPCCalls.WithLabelValues(method, "ok"))
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return nil
	}
	if err := interceptor(context.Background(), method, nil, nil, nil, invoker); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if got := testutil.ToFloat64(GRPCCalls.WithLabelValues(method, "ok")) - before; got != 1 {
		t.Fatalf("expected 1 call, got %v", got)
	}
}

func TestPush_EmptyGatewayIsNoop(t *testing.T) {
	if err := Push("", "job"); err != nil {
		t.Fatalf("Push: %v", err)
	}
}
