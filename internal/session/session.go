// Package session provides in-process conversational memory.
//
// A session holds the rolling turn history for one conversation plus the
// most recently resolved product reference. The product reference is kept
// independently of the turn window so follow-up questions ("is it gluten
// free?") still resolve after their originating turn has been evicted.
//
// Sessions are process-lifetime state with an idle TTL; nothing is
// persisted across restarts.
package session

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is a single message in a conversation. Append-only.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ProductRef points at the most recently resolved product for a session.
type ProductRef struct {
	UPC    string `json:"upc"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ValidationRecord tracks one product resolution in a session, so the
// planner can see what has already been looked up this conversation.
type ValidationRecord struct {
	UPC    string    `json:"upc"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// Snapshot is a copy-on-read view of a session. Safe to hold across an
// orchestration run: later mutation or TTL eviction never changes it.
type Snapshot struct {
	ID          string
	Turns       []Turn
	LastProduct *ProductRef
	Validations []ValidationRecord
	CreatedAt   time.Time
	LastActive  time.Time
}
