// Package secrets resolves credentials at startup. The rest of the service
// only ever consumes resolved strings and never branches on where they came
// from.
package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrNotFound reports an absent secret; the caller decides whether that is
// fatal.
var ErrNotFound = errors.New("secret not found")

// Provider supplies a credential for a logical name like "openai-api-key".
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// Env maps logical names onto environment variables ("openai-api-key" →
// OPENAI_API_KEY).
type Env struct{}

func (Env) Get(_ context.Context, name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Chain tries providers in order and returns the first hit. Any provider
// error counts as a miss so a broken vault degrades to the env fallback.
type Chain []Provider

func (c Chain) Get(ctx context.Context, name string) (string, error) {
	for _, p := range c {
		if v, err := p.Get(ctx, name); err == nil {
			return v, nil
		}
	}
	return "", ErrNotFound
}
