package token

import (
	"errors"
	"fmt"
)

// Counter counts tokens of a text under the encoding of the given model.
// Implementations must be deterministic: the same (model, text) pair always
// yields the same count.
type Counter interface {
	Count(model, text string) (int, error)
}

// ErrUnknownModel is returned when a model identifier has no entry in the
// context-limit table.
var ErrUnknownModel = errors.New("token: unknown model identifier")

// Limits maps a model identifier to its maximum context window in tokens.
type Limits map[string]int

// DefaultLimits returns the built-in context-limit table.
func DefaultLimits() Limits {
	return Limits{
		"text-davinci-003":  4097,
		"gpt-3.5-turbo":     4096,
		"gpt-3.5-turbo-16k": 16384,
		"gpt-4":             8192,
		"gpt-4-turbo":       128000,
		"gpt-4o":            128000,
		"gpt-4o-mini":       128000,
	}
}

// For returns the context limit for the given model. An unknown model is a
// configuration error, not a runtime condition to retry.
func (l Limits) For(model string) (int, error) {
	limit, ok := l[model]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return limit, nil
}

// Merge overlays the given table on top of l and returns the result. Used to
// apply per-deployment overrides from configuration.
func (l Limits) Merge(overrides map[string]int) Limits {
	merged := make(Limits, len(l)+len(overrides))
	for model, limit := range l {
		merged[model] = limit
	}
	for model, limit := range overrides {
		merged[model] = limit
	}
	return merged
}
