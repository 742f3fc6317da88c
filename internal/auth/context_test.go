package auth

import (
	"sync"
	"testing"
)

func TestContextSetAndClear(t *testing.T) {
	t.Parallel()

	authCtx := NewContext()
	if got := authCtx.Token(); got != "" {
		t.Fatalf("fresh context should have no token, got %q", got)
	}

	authCtx.SetToken("abc123")
	if got := authCtx.Token(); got != "abc123" {
		t.Fatalf("token: want %q, got %q", "abc123", got)
	}

	authCtx.Clear()
	if got := authCtx.Token(); got != "" {
		t.Fatalf("cleared context should have no token, got %q", got)
	}
}

func TestContextConcurrentAccess(t *testing.T) {
	t.Parallel()

	authCtx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			authCtx.SetToken("tok")
		}()
		go func() {
			defer wg.Done()
			_ = authCtx.Token()
		}()
	}
	wg.Wait()

	if got := authCtx.Token(); got != "tok" {
		t.Fatalf("token after concurrent writes: want %q, got %q", "tok", got)
	}
}
