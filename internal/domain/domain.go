package domain

import "fmt"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderHuman Sender = "human"
	SenderAI    Sender = "ai"
)

func (s Sender) Valid() bool {
	return s == SenderHuman || s == SenderAI
}

// Turn is a single conversational message: the unit both classified and
// retained as context for the next classification.
type Turn struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Event is one entry of a client's classification vocabulary. Events are
// scoped to a sender role: human events never compete with ai events.
type Event struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
	Threshold   *float64 `json:"threshold,omitempty"`
	Sender      Sender   `json:"sender"`
}

// Validate checks the event schema. Records failing validation are skipped
// at load time, not fatal.
func (e Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("event name is required")
	}
	if !e.Sender.Valid() {
		return fmt.Errorf("event %q: invalid sender %q", e.Name, e.Sender)
	}
	if e.Threshold != nil && (*e.Threshold < 0 || *e.Threshold > 1) {
		return fmt.Errorf("event %q: threshold %v outside [0,1]", e.Name, *e.Threshold)
	}
	return nil
}

// Settings holds per-client options. An empty AllowedDomains list means no
// origin restriction is configured.
type Settings struct {
	AllowedDomains []string `json:"allowed_domains"`
}

// ClientConfig is the loaded configuration for one container id.
type ClientConfig struct {
	Events   []Event
	Settings Settings
}

// EventByName looks up an event across the whole vocabulary.
func (c *ClientConfig) EventByName(name string) (Event, bool) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// OriginAllowed applies the allow-list rule: an empty list allows everything,
// a non-empty list requires a parseable origin hostname that is a member.
func (s Settings) OriginAllowed(hostname string) bool {
	if len(s.AllowedDomains) == 0 {
		return true
	}
	if hostname == "" {
		return false
	}
	for _, d := range s.AllowedDomains {
		if d == hostname {
			return true
		}
	}
	return false
}
