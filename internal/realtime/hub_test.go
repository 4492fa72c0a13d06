package realtime

import (
	"context"
	"errors"
	"testing"

	"glimo/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Initialize("error", "json")
}

var errForbidden = errors.New("forbidden")

type ownInboxAuthorizer struct{}

func (ownInboxAuthorizer) AuthorizeSubscription(_ context.Context, userID uuid.UUID, _ string, filter *Filter) error {
	if filter == nil || filter.Value != userID.String() {
		return errForbidden
	}
	return nil
}

func newTestClient(t *testing.T, hub *Hub, userID uuid.UUID) *Client {
	t.Helper()
	c := NewClient(userID, nil)
	require.NoError(t, hub.Register(c))
	return c
}

func drain(c *Client) []serverFrame {
	var frames []serverFrame
	for {
		select {
		case b := <-c.send:
			var f serverFrame
			_ = json.Unmarshal(b, &f)
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func messageChange(t *testing.T, sender, recipient uuid.UUID) *Change {
	t.Helper()
	change, err := NewChange(TableMessages, EventInsert, map[string]string{"content": "hi"}, map[string]string{
		"sender_id":    sender.String(),
		"recipient_id": recipient.String(),
	})
	require.NoError(t, err)
	return change
}

func TestHub_SubscribeAuthorization(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me := uuid.New()
	c := newTestClient(t, hub, me)

	err := hub.Subscribe(context.Background(), c, &Subscription{
		ID:     "own",
		Table:  TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	})
	require.NoError(t, err)

	err = hub.Subscribe(context.Background(), c, &Subscription{
		ID:     "other",
		Table:  TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: uuid.NewString()},
	})
	assert.ErrorIs(t, err, errForbidden)

	err = hub.Subscribe(context.Background(), c, &Subscription{ID: "x", Table: "profiles"})
	assert.ErrorIs(t, err, ErrUnknownTable)

	err = hub.Subscribe(context.Background(), c, &Subscription{
		ID:     "own",
		Table:  TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	})
	assert.ErrorIs(t, err, ErrDuplicateSubID)
}

func TestHub_DispatchDeliversOnceAcrossMatchingSubscriptions(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me, peer := uuid.New(), uuid.New()
	c := newTestClient(t, hub, me)

	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "a", Table: TableMessages, Event: EventInsert,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))
	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "b", Table: TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))

	change := messageChange(t, peer, me)
	hub.Dispatch(change)
	hub.Dispatch(change)

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "change", frames[0].Type)
	assert.Equal(t, "a", frames[0].Subscription)
	assert.Equal(t, TableMessages, frames[0].Table)
	assert.JSONEq(t, `{"content":"hi"}`, string(frames[0].Row))
}

func TestHub_DispatchFilters(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me, peer, stranger := uuid.New(), uuid.New(), uuid.New()
	c := newTestClient(t, hub, me)

	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "inbox", Table: TableMessages, Event: EventUpdate,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))

	hub.Dispatch(messageChange(t, peer, me))
	hub.Dispatch(messageChange(t, peer, stranger))
	assert.Empty(t, drain(c))

	update := messageChange(t, peer, me)
	update.Event = EventUpdate
	hub.Dispatch(update)
	assert.Len(t, drain(c), 1)
}

func TestHub_DispatchExcludesEmitter(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me := uuid.New()
	c := newTestClient(t, hub, me)

	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "inbox", Table: TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))

	hub.Dispatch(messageChange(t, me, me).Excluding(me))
	assert.Empty(t, drain(c))
}

func TestHub_UnsubscribeAndUnregister(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me, peer := uuid.New(), uuid.New()
	c := newTestClient(t, hub, me)

	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "inbox", Table: TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))
	hub.Unsubscribe(c, "inbox")
	hub.Dispatch(messageChange(t, peer, me))
	assert.Empty(t, drain(c))

	assert.Equal(t, 1, hub.ClientCount())
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.send
	assert.False(t, open)
}

func TestRecentIDs(t *testing.T) {
	r := newRecentIDs(2)

	assert.True(t, r.add("a"))
	assert.False(t, r.add("a"))
	assert.True(t, r.add("b"))
	assert.True(t, r.add("c"))
	assert.True(t, r.add("a"))
	assert.False(t, r.add("c"))
}

func TestLocalBroker(t *testing.T) {
	hub := NewHub(ownInboxAuthorizer{})
	me, peer := uuid.New(), uuid.New()
	c := newTestClient(t, hub, me)
	require.NoError(t, hub.Subscribe(context.Background(), c, &Subscription{
		ID: "inbox", Table: TableMessages,
		Filter: &Filter{Column: "recipient_id", Value: me.String()},
	}))

	broker := NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- broker.Run(ctx, hub) }()

	require.NoError(t, broker.Publish(ctx, messageChange(t, peer, me)))

	frame := <-c.send
	assert.Contains(t, string(frame), `"type":"change"`)

	cancel()
	assert.NoError(t, <-done)
}
