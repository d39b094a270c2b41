// Package history tracks the single most recent turn per conversation,
// giving classification one message of context.
package history

import (
	"context"
	"regexp"

	"llmaniac/internal/domain"
)

// Store holds at most one turn per conversation key. Put always overwrites:
// the retained history is a sliding window of size one. Two concurrent
// requests for the same key may interleave their get/put arbitrarily; the
// context they see is best-effort and the final state is last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (domain.Turn, bool, error)
	Put(ctx context.Context, key string, turn domain.Turn) error
}

// Session ids additionally allow dots (browser-generated ids often carry
// them); anything else falls back to the container-wide conversation.
var safeSessionID = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Key derives the conversation key. A valid session id scopes the
// conversation to "container:session"; a missing or malformed one silently
// collapses to the bare container id, merging those sessions into one
// shared conversation.
func Key(containerID, sessionID string) string {
	if sessionID != "" && safeSessionID.MatchString(sessionID) {
		return containerID + ":" + sessionID
	}
	return containerID
}
