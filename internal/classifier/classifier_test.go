package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmaniac/internal/domain"
)

type fakeLLM struct {
	resp    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.resp, f.err
}

func vocabulary() []domain.Event {
	return []domain.Event{
		{Name: "greet", Description: "user says hello", Examples: []string{"hi", "hello"}, Sender: domain.SenderHuman},
		{Name: "ask_price", Description: "user asks about pricing", Sender: domain.SenderHuman},
		{Name: "bot_greet", Description: "assistant greets", Sender: domain.SenderAI},
	}
}

func TestClassifyMatch(t *testing.T) {
	llm := &fakeLLM{resp: "greet"}
	cls := New(llm, zerolog.Nop())

	event, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderHuman}, vocabulary(), nil)
	require.NoError(t, err)
	assert.Equal(t, "greet", event)
	assert.Equal(t, 1, llm.calls)
}

func TestClassifyTrimsAnswer(t *testing.T) {
	llm := &fakeLLM{resp: "  greet\n"}
	cls := New(llm, zerolog.Nop())

	event, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderHuman}, vocabulary(), nil)
	require.NoError(t, err)
	assert.Equal(t, "greet", event)
}

func TestClassifyNone(t *testing.T) {
	llm := &fakeLLM{resp: "None"}
	cls := New(llm, zerolog.Nop())

	event, err := cls.Classify(context.Background(), domain.Turn{Text: "what time is it", Sender: domain.SenderHuman}, vocabulary(), nil)
	require.NoError(t, err)
	assert.Empty(t, event)
}

func TestClassifyFailsClosed(t *testing.T) {
	// Anything that is not exactly a candidate name or the None literal is
	// discarded, never surfaced.
	for _, answer := range []string{"unrelated_event", "GREET", "greet.", "greet because the user said hi", "bot_greet"} {
		t.Run(answer, func(t *testing.T) {
			llm := &fakeLLM{resp: answer}
			cls := New(llm, zerolog.Nop())

			event, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderHuman}, vocabulary(), nil)
			require.NoError(t, err)
			assert.Empty(t, event)
		})
	}
}

func TestClassifySkipsWithoutCandidates(t *testing.T) {
	llm := &fakeLLM{resp: "greet"}
	cls := New(llm, zerolog.Nop())

	onlyHuman := []domain.Event{{Name: "greet", Sender: domain.SenderHuman}}
	event, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderAI}, onlyHuman, nil)
	require.NoError(t, err)
	assert.Empty(t, event)
	assert.Zero(t, llm.calls, "provider must not be called without candidate events")
}

func TestClassifyProviderError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	cls := New(llm, zerolog.Nop())

	_, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderHuman}, vocabulary(), nil)
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.ErrorContains(t, err, "connection refused")
}

func TestClassifyPromptCarriesPriorTurn(t *testing.T) {
	llm := &fakeLLM{resp: "None"}
	cls := New(llm, zerolog.Nop())

	prior := &domain.Turn{Text: "how can I help you?", Sender: domain.SenderAI}
	_, err := cls.Classify(context.Background(), domain.Turn{Text: "hello", Sender: domain.SenderHuman}, vocabulary(), prior)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "how can I help you?")
}
