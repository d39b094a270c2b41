package classifier

import (
	"strings"

	"llmaniac/internal/domain"
)

// BuildPrompt renders the single classification instruction sent to the
// model: task statement, answer-format rules, the candidate catalogue, the
// prior turn when known, and the target text, both fenced. Output is
// deterministic for a given input. Events whose sender differs from the
// target's never appear, regardless of what the caller passes in.
func BuildPrompt(target domain.Turn, vocabulary []domain.Event, prior *domain.Turn) string {
	var b strings.Builder

	b.WriteString("Your task is to classify a message from '" + string(target.Sender) + "' against the defined events.\n")
	b.WriteString("Answer ONLY with the name of the event that best matches the LAST message, or '" + NoneLabel + "' if none match.\n")
	b.WriteString("Do not add any explanation or extra text.\n")
	b.WriteString("Use the previous message as context if it helps.\n")
	b.WriteString("\n")

	b.WriteString("Available events for '" + string(target.Sender) + "':\n")
	for _, ev := range vocabulary {
		if ev.Sender != target.Sender {
			continue
		}
		b.WriteString("- Name: " + ev.Name + "\n")
		b.WriteString("  Description: " + ev.Description + "\n")
		if len(ev.Examples) > 0 {
			b.WriteString("  Examples:\n")
			for _, ex := range ev.Examples {
				b.WriteString("    - " + ex + "\n")
			}
		}
	}
	b.WriteString("\n")

	if prior != nil {
		b.WriteString("Previous message in the conversation (" + string(prior.Sender) + "):\n")
		b.WriteString("```\n")
		b.WriteString(prior.Text + "\n")
		b.WriteString("```\n")
		b.WriteString("\n")
	}

	b.WriteString("Message to classify (" + string(target.Sender) + "):\n")
	b.WriteString("```\n")
	b.WriteString(target.Text + "\n")
	b.WriteString("```\n")
	b.WriteString("\n")
	b.WriteString("Best matching event (or " + NoneLabel + "):")

	return b.String()
}
