package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// ProviderError is one provider's failure inside a ChainError.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Provider + " failed: " + e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// ChainError lists every provider failure, in call order.
type ChainError struct {
	Failures []*ProviderError
}

func (e *ChainError) Error() string {
	lines := make([]string, 0, len(e.Failures)+1)
	lines = append(lines, "all FX providers failed")
	for _, f := range e.Failures {
		lines = append(lines, f.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes each failure to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// Is reports ErrRateUnavailable as a match.
func (e *ChainError) Is(target error) bool { return target == ErrRateUnavailable }

// Chain tries providers in order and returns the first positive rate.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Fetch returns the rate and the name of the provider that served it.
func (c *Chain) Fetch(ctx context.Context, date core.Date) (float64, string, error) {
	var failures []*ProviderError
	for _, p := range c.providers {
		rate, err := p.Rate(ctx, date)
		if err == nil && rate <= 0 {
			err = fmt.Errorf("non-positive rate %v", rate)
		}
		if err == nil {
			return rate, p.Name(), nil
		}
		failures = append(failures, &ProviderError{Provider: p.Name(), Err: err})
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			break
		}
	}
	return 0, "", &ChainError{Failures: failures}
}
