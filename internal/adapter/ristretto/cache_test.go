package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "req.REQ-1", []byte(`{"id":"REQ-1"}`), time.Minute)
	c.c.Wait() // ristretto sets are async

	got, ok := c.Get(ctx, "req.REQ-1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(got) != `{"id":"REQ-1"}` {
		t.Errorf("got %q", got)
	}

	c.Delete(ctx, "req.REQ-1")
	c.c.Wait()
	if _, ok := c.Get(ctx, "req.REQ-1"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestCacheMissIsNotAnError(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get(context.Background(), "req.REQ-404"); ok {
		t.Error("expected miss for unknown key")
	}
}
