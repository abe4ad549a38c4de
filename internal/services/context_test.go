package services_test

import (
	"context"
	"testing"

	"cogengine/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithWorkflow(ctx, "Digest")
	ctx = services.WithStep(ctx, "load", "DirectoryLoader")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if name, ok := services.WorkflowFromContext(ctx); !ok || name != "Digest" {
		t.Fatalf("unexpected workflow: %v %v", name, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "load" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
	if typ, ok := services.TaskTypeFromContext(ctx); !ok || typ != "DirectoryLoader" {
		t.Fatalf("unexpected task type: %v %v", typ, ok)
	}
}

func TestStepBlankPreservesContext(t *testing.T) {
	ctx := services.WithStep(context.Background(), "", "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
	if _, ok := services.TaskTypeFromContext(ctx); ok {
		t.Fatal("expected no task type value")
	}
}
