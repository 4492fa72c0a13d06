package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	EventAll    Event = "*"
)

func (e Event) Valid() bool {
	switch e {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return true
	}
	return false
}

const (
	TableMessages     = "messages"
	TableTypingEvents = "typing_events"
	TablePartnerships = "partnership_requests"
)

// Change is a row-level change published to subscribers. Columns carries the
// values filters are evaluated against; Row is the payload delivered as is.
type Change struct {
	ID            string            `json:"id"`
	Table         string            `json:"table"`
	Event         Event             `json:"event"`
	Columns       map[string]string `json:"columns"`
	Row           json.RawMessage   `json:"row"`
	ExcludeUserID uuid.UUID         `json:"exclude_user_id"`
}

func NewChange(table string, event Event, row any, columns map[string]string) (*Change, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal %s row: %w", table, err)
	}

	return &Change{
		ID:      uuid.NewString(),
		Table:   table,
		Event:   event,
		Columns: columns,
		Row:     payload,
	}, nil
}

// Excluding marks the user that must not receive the change.
func (c *Change) Excluding(userID uuid.UUID) *Change {
	c.ExcludeUserID = userID
	return c
}
