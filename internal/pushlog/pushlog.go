// Package pushlog records events pushed by client integrations. The log is
// best-effort bookkeeping: append failures are reported but never block the
// acknowledgement to the caller.
package pushlog

import (
	"context"
	"time"

	"llmaniac/internal/domain"
)

type Entry struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Sender     domain.Sender  `json:"sender"`
	ReceivedAt time.Time      `json:"received_at"`
}

type Log interface {
	Append(ctx context.Context, e Entry) error
}
