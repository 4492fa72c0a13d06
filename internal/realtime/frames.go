package realtime

import "github.com/goccy/go-json"

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameSubscribed  = "subscribed"
	frameChange      = "change"
	frameError       = "error"
)

type clientFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Table  string `json:"table,omitempty"`
	Event  Event  `json:"event,omitempty"`
	Filter string `json:"filter,omitempty"`
}

type serverFrame struct {
	Type         string          `json:"type"`
	Subscription string          `json:"subscription,omitempty"`
	Table        string          `json:"table,omitempty"`
	Event        Event           `json:"event,omitempty"`
	Row          json.RawMessage `json:"row,omitempty"`
	Message      string          `json:"message,omitempty"`
}
