// Package provider runs an ordered cascade of interchangeable capability
// providers, falling through recoverable failures until one succeeds.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reporeel/internal/logging"
)

// Outcome classifies a provider failure.
type Outcome int

const (
	// Recoverable failures skip to the next provider in order.
	Recoverable Outcome = iota
	// Fatal failures abort the cascade immediately.
	Fatal
)

// ErrExhausted is returned when every provider was skipped or failed
// recoverably.
var ErrExhausted = errors.New("all providers exhausted")

// Descriptor describes one provider in a cascade. Availability is evaluated
// per attempt, not at construction, so providers that gain or lose their
// prerequisites between jobs are picked up without a restart.
type Descriptor[Req, Art any] struct {
	// Name identifies the provider in logs and results.
	Name string
	// Available reports whether the provider can serve this attempt. A nil
	// func means always available; a non-nil error skips the provider with
	// that reason.
	Available func(ctx context.Context, req Req) error
	// Run performs the work.
	Run func(ctx context.Context, req Req) (Art, error)
	// Classify maps a Run error to an outcome. Nil means every failure is
	// recoverable.
	Classify func(err error) Outcome
	// Timeout bounds a single attempt. Zero means the caller's context
	// deadline applies unchanged.
	Timeout time.Duration
}

// Attempt records what happened with one provider during Execute.
type Attempt struct {
	Provider string
	Skipped  bool
	Err      error
}

// Result carries the produced artifact and which provider produced it.
type Result[Art any] struct {
	Artifact Art
	Provider string
	Attempts []Attempt
}

// Cascade is an ordered list of providers for one capability.
type Cascade[Req, Art any] struct {
	capability string
	providers  []Descriptor[Req, Art]
	logger     *slog.Logger
}

// New builds a cascade for the named capability. Provider order is the
// preference order.
func New[Req, Art any](capability string, logger *slog.Logger, providers ...Descriptor[Req, Art]) *Cascade[Req, Art] {
	return &Cascade[Req, Art]{
		capability: capability,
		providers:  providers,
		logger:     logging.WithComponent(logger, "cascade"),
	}
}

// Execute tries each provider in order. Unavailable providers are skipped,
// recoverable failures fall through, and a fatal failure aborts. When no
// provider succeeds the error wraps ErrExhausted and the last failure.
func (c *Cascade[Req, Art]) Execute(ctx context.Context, req Req) (Result[Art], error) {
	var (
		result  Result[Art]
		lastErr error
	)

	for _, desc := range c.providers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if desc.Available != nil {
			if err := desc.Available(ctx, req); err != nil {
				c.logger.Debug("provider unavailable",
					logging.String("capability", c.capability),
					logging.String(logging.FieldProvider, desc.Name),
					logging.Error(err))
				result.Attempts = append(result.Attempts, Attempt{Provider: desc.Name, Skipped: true, Err: err})
				continue
			}
		}

		artifact, err := c.runOne(ctx, desc, req)
		if err == nil {
			result.Artifact = artifact
			result.Provider = desc.Name
			result.Attempts = append(result.Attempts, Attempt{Provider: desc.Name})
			c.logger.Info("provider succeeded",
				logging.String("capability", c.capability),
				logging.String(logging.FieldProvider, desc.Name),
				logging.Int("attempt", len(result.Attempts)))
			return result, nil
		}

		result.Attempts = append(result.Attempts, Attempt{Provider: desc.Name, Err: err})
		lastErr = err

		outcome := Recoverable
		if desc.Classify != nil {
			outcome = desc.Classify(err)
		}
		if outcome == Fatal {
			c.logger.Error("provider failed fatally",
				logging.String("capability", c.capability),
				logging.String(logging.FieldProvider, desc.Name),
				logging.Error(err))
			return result, fmt.Errorf("%s provider %s: %w", c.capability, desc.Name, err)
		}

		c.logger.Warn("provider failed, trying next",
			logging.String("capability", c.capability),
			logging.String(logging.FieldProvider, desc.Name),
			logging.Error(err))
	}

	if lastErr != nil {
		return result, fmt.Errorf("%s: %w: last failure: %w", c.capability, ErrExhausted, lastErr)
	}
	return result, fmt.Errorf("%s: %w", c.capability, ErrExhausted)
}

func (c *Cascade[Req, Art]) runOne(ctx context.Context, desc Descriptor[Req, Art], req Req) (Art, error) {
	if desc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}
	return desc.Run(ctx, req)
}
