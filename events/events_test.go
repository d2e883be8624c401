package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/repodeck/workflow"
)

type fakeConn struct {
	mu   sync.Mutex
	msgs map[string][][]byte
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.msgs == nil {
		c.msgs = make(map[string][][]byte)
	}
	c.msgs[subject] = append(c.msgs[subject], data)
	return nil
}

func event(session string, to workflow.Status) StatusEvent {
	return StatusEvent{Session: session, From: workflow.StatusIdle, To: to, At: time.Unix(1700000000, 0).UTC()}
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, WithSubjectPrefix("decks.status."))

	require.NoError(t, p.Publish(context.Background(), event("abc", workflow.StatusFetchingRepo)))

	require.Len(t, conn.msgs["decks.status.abc"], 1)
	var got StatusEvent
	require.NoError(t, json.Unmarshal(conn.msgs["decks.status.abc"][0], &got))
	assert.Equal(t, "abc", got.Session)
	assert.Equal(t, workflow.StatusFetchingRepo, got.To)
}

func TestNATSPublisher_DefaultSubject(t *testing.T) {
	p := NewNATSPublisher(&fakeConn{})
	assert.Equal(t, "repodeck.status.s1", p.Subject("s1"))
}

func TestNATSPublisher_Errors(t *testing.T) {
	p := NewNATSPublisher(&fakeConn{err: errors.New("nats: connection closed")})
	assert.ErrorContains(t, p.Publish(context.Background(), event("abc", workflow.StatusError)), "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewNATSPublisher(&fakeConn{}).Publish(ctx, event("abc", workflow.StatusError)), context.Canceled)
}

func TestHub_SubscribeAndPublish(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	other, cancelOther := h.Subscribe("s2")
	defer cancelOther()

	require.NoError(t, h.Publish(context.Background(), event("s1", workflow.StatusAnalyzing)))

	select {
	case ev := <-ch:
		assert.Equal(t, workflow.StatusAnalyzing, ev.To)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Empty(t, other)

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Subscribers("s1"))

	// cancel is idempotent
	assert.NotPanics(t, cancel)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("s1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range DefaultBuffer * 2 {
			_ = h.Publish(context.Background(), event("s1", workflow.StatusAnalyzing))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := &fakeConn{}
	m := Multi{NewNATSPublisher(ok), nil, NewNATSPublisher(&fakeConn{err: errors.New("down")})}

	err := m.Publish(context.Background(), event("s1", workflow.StatusCompleted))
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.msgs["repodeck.status.s1"], 1)
}

func TestObserve(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1")
	defer cancel()

	m := workflow.NewMachine()
	Observe(m, "s1", h, nil)

	require.NoError(t, m.Begin())
	require.True(t, m.Fail(errors.New("boom")))

	first := <-ch
	second := <-ch
	assert.Equal(t, workflow.StatusFetchingRepo, first.To)
	assert.Equal(t, workflow.StatusError, second.To)
	assert.Equal(t, workflow.GenericMessage, second.Message)
	assert.Equal(t, "s1", second.Session)
}
