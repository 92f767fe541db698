package mongo

import (
	"context"
	"testing"
)

// Service-layer transaction bodies are plain context closures; this pins the
// callback type so they keep satisfying TransactionFunc.
var _ TransactionFunc = func(ctx context.Context) error { return nil }

func TestTransactionFunc_AcceptsPlainContext(t *testing.T) {
	called := false
	var fn TransactionFunc = func(ctx context.Context) error {
		called = true
		return nil
	}

	if err := fn(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected the callback to run")
	}
}
