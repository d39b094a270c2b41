package classifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Traced wraps a CompletionClient and records every call tagged with the
// observability project, the Go counterpart of wrapping the provider client
// for tracing. Enabled only when tracing is configured; otherwise the raw
// client is used directly.
type Traced struct {
	inner   CompletionClient
	log     zerolog.Logger
	project string
}

func NewTraced(inner CompletionClient, log zerolog.Logger, project string) *Traced {
	return &Traced{inner: inner, log: log, project: project}
}

func (t *Traced) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := t.inner.Complete(ctx, prompt)

	evt := t.log.Info()
	if err != nil {
		evt = t.log.Error().Err(err)
	}
	evt.
		Str("trace_project", t.project).
		Int("prompt_chars", len(prompt)).
		Int("completion_chars", len(out)).
		Dur("duration", time.Since(start)).
		Msg("llm call traced")

	return out, err
}
