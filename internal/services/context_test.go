package services

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	got, ok := RequestIDFromContext(ctx)
	if !ok || got != "abc" {
		t.Fatalf("expected request id abc, got %q (ok=%v)", got, ok)
	}
	if _, ok := RequestIDFromContext(WithRequestID(context.Background(), "")); ok {
		t.Fatal("expected empty request id to be ignored")
	}
}

func TestComponentRoundTrip(t *testing.T) {
	ctx := WithComponent(context.Background(), "segment")
	if got, ok := ComponentFromContext(ctx); !ok || got != "segment" {
		t.Fatalf("expected component segment, got %q (ok=%v)", got, ok)
	}
	if _, ok := ComponentFromContext(context.Background()); ok {
		t.Fatal("expected no component on bare context")
	}
}
