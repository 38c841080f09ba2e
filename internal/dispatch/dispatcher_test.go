package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

// fakeProvider is a scriptable ChannelProvider.
type fakeProvider struct {
	name    string
	fail    bool
	failMsg string

	mu        sync.Mutex
	sendCalls int
}

func (f *fakeProvider) Send(_ context.Context, _ notification.Message) notification.DeliveryResult {
	f.mu.Lock()
	f.sendCalls++
	f.mu.Unlock()

	if f.fail {
		msg := f.failMsg
		if msg == "" {
			msg = "simulated failure"
		}
		return notification.Failed(f.name, time.Millisecond, msg)
	}
	return notification.Succeeded(f.name, f.name+"-msg-1", time.Millisecond)
}

func (f *fakeProvider) ValidateConfig(context.Context) bool { return true }
func (f *fakeProvider) Name() string                        { return f.name }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(eventType string, _ map[string]string) {
	r.mu.Lock()
	r.events = append(r.events, eventType)
	r.mu.Unlock()
}

// memStore is an in-memory DeliveryStore.
type memStore struct {
	mu      sync.Mutex
	entries []storage.DeliveryLogEntry
}

func (m *memStore) LogDelivery(_ context.Context, e storage.DeliveryLogEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

func (m *memStore) ListDeliveries(context.Context, int) ([]storage.DeliveryLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.DeliveryLogEntry(nil), m.entries...), nil
}

func (m *memStore) ProviderStats(context.Context) ([]storage.ProviderStats, error) {
	return nil, nil
}

func testMessage() notification.Message {
	return notification.Message{
		To:       []string{"user@example.com"},
		From:     "noreply@svc.com",
		Subject:  "Welcome",
		TextBody: "Hi",
	}
}

func newDispatcher(t *testing.T, cfg dispatch.Config) *dispatch.Dispatcher {
	t.Helper()
	d, err := dispatch.New(cfg)
	require.NoError(t, err)
	return d
}

func TestDispatch_FirstProviderSucceeds(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a, b}})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	assert.True(t, out.Result.Success)
	assert.Equal(t, "a", out.Result.Provider)
	assert.NotEmpty(t, out.DeliveryID)
	assert.Len(t, out.Attempts, 1)
	assert.Zero(t, b.calls(), "second provider must not be attempted")
}

func TestDispatch_FailoverReturnsSecondResultAndKeepsTrail(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true, failMsg: "auth rejected"}
	b := &fakeProvider{name: "b"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a, b}})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	require.True(t, out.Result.Success)
	assert.Equal(t, "b", out.Result.Provider)
	assert.Equal(t, "b-msg-1", out.Result.MessageID)

	// The first provider's failure reason stays retrievable from the trail.
	require.Len(t, out.Attempts, 2)
	assert.False(t, out.Attempts[0].Success)
	assert.Equal(t, "a", out.Attempts[0].Provider)
	assert.Contains(t, out.Attempts[0].ErrorMessage, "auth rejected")
}

func TestDispatch_ExhaustionAggregatesAllReasons(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true, failMsg: "timeout: deadline exceeded"}
	b := &fakeProvider{name: "b", fail: true, failMsg: "connection refused"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a, b}})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	require.False(t, out.Result.Success)
	assert.Empty(t, out.Result.MessageID)
	assert.Contains(t, out.Result.ErrorMessage, "a: timeout: deadline exceeded")
	assert.Contains(t, out.Result.ErrorMessage, "b: connection refused")
	assert.GreaterOrEqual(t, out.Result.DurationMS, int64(0))
	assert.Len(t, out.Attempts, 2)
}

func TestDispatch_InvalidMessageNeverReachesProviders(t *testing.T) {
	a := &fakeProvider{name: "a"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a}})

	msg := testMessage()
	msg.TextBody = ""
	msg.HTMLBody = ""

	out, err := d.Dispatch(context.Background(), msg)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Zero(t, a.calls())
}

func TestDispatch_ExplicitProviderSelection(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a, b}})

	out, err := d.Dispatch(context.Background(), testMessage(), "b")
	require.NoError(t, err)

	assert.Equal(t, "b", out.Result.Provider)
	assert.Zero(t, a.calls())
}

func TestDispatch_UnknownProviderRejectedUpfront(t *testing.T) {
	a := &fakeProvider{name: "a"}
	d := newDispatcher(t, dispatch.Config{Providers: []notification.ChannelProvider{a}})

	_, err := d.Dispatch(context.Background(), testMessage(), "nope")
	require.ErrorIs(t, err, dispatch.ErrUnknownProvider)
	assert.Zero(t, a.calls())
}

func TestDispatch_SameProviderRetryPolicy(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true}
	d := newDispatcher(t, dispatch.Config{
		Providers: []notification.ChannelProvider{a},
		Policy:    dispatch.Policy{RetryAttempts: 2, RetryBackoff: time.Millisecond},
	})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	assert.False(t, out.Result.Success)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, a.calls())
	// Retries on the same provider collapse into one trail entry.
	assert.Len(t, out.Attempts, 1)
}

func TestDispatch_MaxProvidersCapsOrder(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true}
	b := &fakeProvider{name: "b", fail: true}
	c := &fakeProvider{name: "c"}
	d := newDispatcher(t, dispatch.Config{
		Providers: []notification.ChannelProvider{a, b, c},
		Policy:    dispatch.Policy{MaxProviders: 2},
	})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	assert.False(t, out.Result.Success)
	assert.Zero(t, c.calls())
}

func TestDispatch_PriorityOrderRespected(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b"}
	d := newDispatcher(t, dispatch.Config{
		Providers: []notification.ChannelProvider{a, b},
		Policy:    dispatch.Policy{Priority: []string{"b", "a"}},
	})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "b", out.Result.Provider)
	assert.Zero(t, a.calls())
}

func TestDispatch_RecordsToStoreAndBus(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true, failMsg: "boom"}
	b := &fakeProvider{name: "b"}
	store := &memStore{}
	pub := &recordingPublisher{}
	d := newDispatcher(t, dispatch.Config{
		Providers: []notification.ChannelProvider{a, b},
		Store:     store,
		Events:    pub,
	})

	out, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)
	require.True(t, out.Result.Success)

	entries, _ := store.ListDeliveries(context.Background(), 10)
	require.Len(t, entries, 2)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, "boom", entries[0].ErrorMsg)
	assert.Equal(t, "sent", entries[1].Status)
	assert.Equal(t, out.DeliveryID, entries[0].DeliveryID)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{eventbus.EventDeliveryFailed, eventbus.EventDeliverySucceeded}, pub.events)
}

func TestDispatch_ExhaustionPublishesEvent(t *testing.T) {
	a := &fakeProvider{name: "a", fail: true}
	pub := &recordingPublisher{}
	d := newDispatcher(t, dispatch.Config{
		Providers: []notification.ChannelProvider{a},
		Events:    pub,
	})

	_, err := d.Dispatch(context.Background(), testMessage())
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.events, eventbus.EventDeliveryExhausted)
}

func TestNew_RejectsEmptyAndDuplicateProviders(t *testing.T) {
	_, err := dispatch.New(dispatch.Config{})
	assert.ErrorIs(t, err, dispatch.ErrNoProviders)

	_, err = dispatch.New(dispatch.Config{
		Providers: []notification.ChannelProvider{
			&fakeProvider{name: "a"}, &fakeProvider{name: "a"},
		},
	})
	assert.Error(t, err)
}

func TestNew_RejectsUnknownPriorityName(t *testing.T) {
	_, err := dispatch.New(dispatch.Config{
		Providers: []notification.ChannelProvider{&fakeProvider{name: "a"}},
		Policy:    dispatch.Policy{Priority: []string{"ghost"}},
	})
	assert.ErrorIs(t, err, dispatch.ErrUnknownProvider)
}
