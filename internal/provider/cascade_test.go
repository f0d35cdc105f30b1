package provider_test

import (
	"context"
	"errors"
	"testing"

	"reporeel/internal/provider"
)

func descriptor(name string, available error, artifact string, runErr error) provider.Descriptor[string, string] {
	return provider.Descriptor[string, string]{
		Name: name,
		Available: func(context.Context, string) error {
			return available
		},
		Run: func(context.Context, string) (string, error) {
			return artifact, runErr
		},
	}
}

func TestExecutePrefersFirstAvailable(t *testing.T) {
	cascade := provider.New[string, string]("narration", nil,
		descriptor("primary", nil, "from-primary", nil),
		descriptor("secondary", nil, "from-secondary", nil),
	)

	result, err := cascade.Execute(t.Context(), "req")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Provider != "primary" || result.Artifact != "from-primary" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("expected single attempt, got %d", len(result.Attempts))
	}
}

func TestExecuteSkipsUnavailableProviders(t *testing.T) {
	cascade := provider.New[string, string]("narration", nil,
		descriptor("primary", errors.New("no api key"), "", nil),
		descriptor("secondary", nil, "from-secondary", nil),
	)

	result, err := cascade.Execute(t.Context(), "req")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Provider != "secondary" {
		t.Fatalf("expected secondary, got %q", result.Provider)
	}
	if len(result.Attempts) != 2 || !result.Attempts[0].Skipped {
		t.Fatalf("unexpected attempts: %+v", result.Attempts)
	}
}

func TestExecuteFallsThroughRecoverableFailures(t *testing.T) {
	cascade := provider.New[string, string]("narration", nil,
		descriptor("primary", nil, "", errors.New("rate limited")),
		descriptor("secondary", nil, "", errors.New("server error")),
		descriptor("fallback", nil, "from-fallback", nil),
	)

	result, err := cascade.Execute(t.Context(), "req")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Provider != "fallback" {
		t.Fatalf("expected fallback, got %q", result.Provider)
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Err == nil || result.Attempts[1].Err == nil {
		t.Fatalf("failed attempts should record their errors: %+v", result.Attempts)
	}
}

func TestExecuteExhaustion(t *testing.T) {
	lastFailure := errors.New("still broken")
	cascade := provider.New[string, string]("narration", nil,
		descriptor("primary", errors.New("not configured"), "", nil),
		descriptor("secondary", nil, "", lastFailure),
	)

	_, err := cascade.Execute(t.Context(), "req")
	if !errors.Is(err, provider.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, lastFailure) {
		t.Fatalf("expected last failure wrapped, got %v", err)
	}
}

func TestExecuteFatalAborts(t *testing.T) {
	fatal := errors.New("invalid credentials revoked")
	ran := false
	cascade := provider.New[string, string]("narration", nil,
		provider.Descriptor[string, string]{
			Name: "primary",
			Run: func(context.Context, string) (string, error) {
				return "", fatal
			},
			Classify: func(error) provider.Outcome { return provider.Fatal },
		},
		provider.Descriptor[string, string]{
			Name: "secondary",
			Run: func(context.Context, string) (string, error) {
				ran = true
				return "never", nil
			},
		},
	)

	_, err := cascade.Execute(t.Context(), "req")
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if ran {
		t.Fatalf("fatal failure must not fall through to later providers")
	}
}

func TestExecuteAvailabilityEvaluatedPerAttempt(t *testing.T) {
	calls := 0
	desc := provider.Descriptor[string, string]{
		Name: "flaky",
		Available: func(context.Context, string) error {
			calls++
			if calls == 1 {
				return errors.New("warming up")
			}
			return nil
		},
		Run: func(context.Context, string) (string, error) {
			return "ok", nil
		},
	}
	fallback := descriptor("fallback", nil, "fb", nil)
	cascade := provider.New[string, string]("speech", nil, desc, fallback)

	first, err := cascade.Execute(t.Context(), "req")
	if err != nil || first.Provider != "fallback" {
		t.Fatalf("first run: %+v, %v", first, err)
	}
	second, err := cascade.Execute(t.Context(), "req")
	if err != nil || second.Provider != "flaky" {
		t.Fatalf("second run should use newly available provider: %+v, %v", second, err)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	cascade := provider.New[string, string]("speech", nil,
		descriptor("primary", nil, "ok", nil),
	)
	if _, err := cascade.Execute(ctx, "req"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
