package classifier

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"llmaniac/internal/domain"
)

// NoneLabel is the literal the model must answer when no event matches.
const NoneLabel = "None"

// ProviderError marks a failure of the LLM call itself, as opposed to an
// answer we chose to discard. Callers map it to a server error; it is not
// retried here.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "llm provider: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// CompletionClient is the single-shot LLM call the classifier depends on.
// Implementations own decoding parameters and transport concerns.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier maps a turn onto a client's event vocabulary by asking the LLM
// and validating its answer against the allowed names.
type Classifier struct {
	llm CompletionClient
	log zerolog.Logger
}

func New(llm CompletionClient, log zerolog.Logger) *Classifier {
	return &Classifier{llm: llm, log: log}
}

// Classify returns the name of the matched event, or "" when nothing
// matched. The vocabulary is filtered to the target's sender role first;
// with no candidate events the provider is never called. Any answer that is
// not exactly NoneLabel or exactly a candidate name is treated as no match:
// an unrecognized label is never surfaced as a real event.
func (c *Classifier) Classify(ctx context.Context, target domain.Turn, vocabulary []domain.Event, prior *domain.Turn) (string, error) {
	var candidates []domain.Event
	for _, ev := range vocabulary {
		if ev.Sender == target.Sender {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		c.log.Warn().Str("sender", string(target.Sender)).Msg("no events defined for sender, skipping classification")
		return "", nil
	}

	prompt := BuildPrompt(target, candidates, prior)

	out, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return "", &ProviderError{Err: err}
	}

	label := strings.TrimSpace(out)
	if label == NoneLabel {
		return "", nil
	}
	for _, ev := range candidates {
		if ev.Name == label {
			return label, nil
		}
	}

	c.log.Warn().
		Str("label", truncate(label, 80)).
		Strs("allowed", eventNames(candidates)).
		Msg("model returned unrecognized event name, treating as no match")
	return "", nil
}

func eventNames(events []domain.Event) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Name
	}
	return names
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
