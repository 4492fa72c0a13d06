package realtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
)

const (
	sendBufferSize = 256
	dedupeWindow   = 512
)

var (
	ErrUnknownTable     = errors.New("unknown table")
	ErrDuplicateSubID   = errors.New("subscription id already in use")
	ErrClientRegistered = errors.New("client already registered")
)

// Authorizer decides whether userID may observe table rows matching filter.
type Authorizer interface {
	AuthorizeSubscription(ctx context.Context, userID uuid.UUID, table string, filter *Filter) error
}

type Subscription struct {
	ID     string
	Table  string
	Event  Event
	Filter *Filter
}

func (s *Subscription) matches(change *Change) bool {
	if s.Table != change.Table {
		return false
	}
	if s.Event != EventAll && s.Event != change.Event {
		return false
	}
	return s.Filter.Matches(change.Columns)
}

type Hub struct {
	authorizer Authorizer
	clients    *xsync.MapOf[string, *Client]
}

func NewHub(authorizer Authorizer) *Hub {
	return &Hub{
		authorizer: authorizer,
		clients:    xsync.NewMapOf[*Client](),
	}
}

func (h *Hub) Register(c *Client) error {
	if _, existed := h.clients.LoadOrStore(c.id, c); existed {
		return ErrClientRegistered
	}
	return nil
}

// Unregister drops the client with all of its subscriptions.
func (h *Hub) Unregister(c *Client) {
	if _, existed := h.clients.LoadAndDelete(c.id); existed {
		c.close()
	}
}

func (h *Hub) Subscribe(ctx context.Context, c *Client, sub *Subscription) error {
	switch sub.Table {
	case TableMessages, TableTypingEvents, TablePartnerships:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTable, sub.Table)
	}
	if sub.Event == "" {
		sub.Event = EventAll
	}
	if !sub.Event.Valid() {
		return fmt.Errorf("unknown event %q", sub.Event)
	}

	if err := h.authorizer.AuthorizeSubscription(ctx, c.userID, sub.Table, sub.Filter); err != nil {
		return err
	}

	if _, existed := c.subs.LoadOrStore(sub.ID, sub); existed {
		return ErrDuplicateSubID
	}

	return nil
}

func (h *Hub) Unsubscribe(c *Client, subID string) {
	c.subs.Delete(subID)
}

// Dispatch delivers change to every client with a matching subscription.
// Each client receives at most one frame per change.
func (h *Hub) Dispatch(change *Change) {
	h.clients.Range(func(_ string, c *Client) bool {
		if change.ExcludeUserID != uuid.Nil && c.userID == change.ExcludeUserID {
			return true
		}

		var matched []string
		c.subs.Range(func(id string, sub *Subscription) bool {
			if sub.matches(change) {
				matched = append(matched, id)
			}
			return true
		})
		if len(matched) == 0 {
			return true
		}
		if !c.seen.add(change.ID) {
			return true
		}
		sort.Strings(matched)

		frame, err := json.Marshal(serverFrame{
			Type:         frameChange,
			Subscription: matched[0],
			Table:        change.Table,
			Event:        change.Event,
			Row:          change.Row,
		})
		if err != nil {
			logger.Logger().Error("failed to encode change frame", zap.Error(err))
			return true
		}

		if !c.enqueue(frame) {
			logger.Logger().Warn("dropping slow realtime client",
				zap.String("client_id", c.id),
				zap.String("user_id", c.userID.String()))
			h.Unregister(c)
		}
		return true
	})
}

func (h *Hub) ClientCount() int {
	return h.clients.Size()
}

// recentIDs remembers the last n change ids delivered to a client.
type recentIDs struct {
	mu   sync.Mutex
	ring []string
	set  map[string]struct{}
	next int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{
		ring: make([]string, n),
		set:  make(map[string]struct{}, n),
	}
}

// add records id and reports whether it was not seen before.
func (r *recentIDs) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; ok {
		return false
	}

	if old := r.ring[r.next]; old != "" {
		delete(r.set, old)
	}
	r.ring[r.next] = id
	r.set[id] = struct{}{}
	r.next = (r.next + 1) % len(r.ring)

	return true
}
