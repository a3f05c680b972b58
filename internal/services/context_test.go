package services_test

import (
	"context"
	"testing"

	"tunegrab/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "download")
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithBatchPosition(ctx, 2, 5)

	if stage, ok := services.StageFromContext(ctx); !ok || stage != "download" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if pos, ok := services.BatchPositionFromContext(ctx); !ok || pos.Index != 2 || pos.Total != 5 {
		t.Fatalf("unexpected batch position: %+v %v", pos, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	ctx = services.WithBatchPosition(ctx, 0, 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
	if _, ok := services.BatchPositionFromContext(ctx); ok {
		t.Fatal("expected no batch position")
	}
}
