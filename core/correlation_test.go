package core

import (
	"context"
	"testing"
)

func TestCorrelationID(t *testing.T) {
	id := NewCorrelationID()
	if len(id) != 8 {
		t.Errorf("len(NewCorrelationID()) = %d, want 8", len(id))
	}
	if NewCorrelationID() == id {
		t.Error("consecutive correlation IDs should differ")
	}

	ctx := WithCorrelationID(context.Background(), id)
	if got := CorrelationID(ctx); got != id {
		t.Errorf("CorrelationID() = %q, want %q", got, id)
	}
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(empty) = %q, want empty", got)
	}
}
