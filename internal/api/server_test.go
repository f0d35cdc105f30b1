package api_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"reporeel/internal/api"
	"reporeel/internal/pipeline"
	"reporeel/internal/queue"
	"reporeel/internal/services"
)

type fakePipeline struct {
	sessions map[string]*queue.Session
	nextID   string
	full     bool
}

func (f *fakePipeline) Submit(_ context.Context, repoURL string) (string, error) {
	if repoURL == "not-a-url" {
		return "", services.Wrap(services.ErrValidation, "analyze", "validate source", "bad url", nil)
	}
	if f.full {
		return "", pipeline.ErrQueueFull
	}
	return f.nextID, nil
}

func (f *fakePipeline) Status(_ context.Context, id string) (*queue.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "status", "unknown session", nil)
	}
	return session, nil
}

func (f *fakePipeline) List(_ context.Context, statuses ...queue.Status) ([]*queue.Session, error) {
	var out []*queue.Session
	for _, session := range f.sessions {
		if len(statuses) == 0 {
			out = append(out, session)
			continue
		}
		for _, status := range statuses {
			if session.Status == status {
				out = append(out, session)
				break
			}
		}
	}
	return out, nil
}

func (f *fakePipeline) Summarize(context.Context) (queue.Summary, error) {
	return queue.Summary{Total: len(f.sessions)}, nil
}

func newTestServer(t *testing.T, token string, pipe api.Pipeline) *httptest.Server {
	t.Helper()
	srv := api.NewServer("127.0.0.1:0", token, pipe, func(context.Context) api.DaemonStatus {
		return api.DaemonStatus{Running: true, PID: 42}
	}, nil)
	if srv == nil {
		t.Fatalf("NewServer returned nil")
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestSubmitAndFetchJob(t *testing.T) {
	pipe := &fakePipeline{
		nextID: "abc-123",
		sessions: map[string]*queue.Session{
			"abc-123": {ID: "abc-123", RepoURL: "https://github.com/acme/widgets", Status: queue.StatusCreated},
		},
	}
	ts := newTestServer(t, "", pipe)
	client := api.NewClient(ts.URL, "")

	id, err := client.Submit(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "abc-123" {
		t.Fatalf("id = %q, want abc-123", id)
	}

	job, err := client.Job(context.Background(), id)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if job.Status != string(queue.StatusCreated) {
		t.Fatalf("status = %q, want created", job.Status)
	}
}

func TestSubmitErrorMapping(t *testing.T) {
	pipe := &fakePipeline{nextID: "x"}
	ts := newTestServer(t, "", pipe)
	client := api.NewClient(ts.URL, "")

	if _, err := client.Submit(context.Background(), "not-a-url"); err == nil {
		t.Fatalf("expected validation error")
	}

	pipe.full = true
	_, err := client.Submit(context.Background(), "https://github.com/acme/widgets")
	if err == nil {
		t.Fatalf("expected queue-full error")
	}
}

func TestJobNotFound(t *testing.T) {
	ts := newTestServer(t, "", &fakePipeline{sessions: map[string]*queue.Session{}})
	client := api.NewClient(ts.URL, "")

	if _, err := client.Job(context.Background(), "missing"); err == nil {
		t.Fatalf("expected 404 error")
	}
}

func TestBearerTokenRequired(t *testing.T) {
	pipe := &fakePipeline{sessions: map[string]*queue.Session{}}
	ts := newTestServer(t, "secret", pipe)

	unauthorized := api.NewClient(ts.URL, "")
	if _, err := unauthorized.Jobs(context.Background()); err == nil {
		t.Fatalf("expected unauthorized error without token")
	}

	authorized := api.NewClient(ts.URL, "secret")
	if _, err := authorized.Jobs(context.Background()); err != nil {
		t.Fatalf("Jobs with token: %v", err)
	}
}

func TestDaemonStatusIncludesQueueSummary(t *testing.T) {
	pipe := &fakePipeline{sessions: map[string]*queue.Session{
		"a": {ID: "a", Status: queue.StatusCompleted},
	}}
	ts := newTestServer(t, "", pipe)
	client := api.NewClient(ts.URL, "")

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("daemon fields missing: %+v", status)
	}
	if status.Queue.Total != 1 {
		t.Fatalf("queue total = %d, want 1", status.Queue.Total)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	ts := newTestServer(t, "", &fakePipeline{sessions: map[string]*queue.Session{}})
	client := api.NewClient(ts.URL, "")

	if _, err := client.Jobs(context.Background(), "bogus"); err == nil {
		t.Fatalf("expected error for unknown status filter")
	}
}
