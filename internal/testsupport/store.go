package testsupport

import (
	"context"
	"testing"

	"reporeel/internal/config"
	"reporeel/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a freshly queued session for tests using the provided store.
func NewSession(t testing.TB, store *queue.Store, repoURL, repoName string) *queue.Session {
	t.Helper()

	session, err := store.Create(context.Background(), repoURL, repoName)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return session
}
