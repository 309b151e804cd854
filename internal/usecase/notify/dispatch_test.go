package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/delivery"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/pkg/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDispatchForTest(store *testhelper.MemoryOutbox, timeout time.Duration, adapters ...delivery.Adapter) *DispatchUseCase {
	return NewDispatchUseCase(store, adapters, timeout, zap.NewNop())
}

func seedQueued(t *testing.T, store *testhelper.MemoryOutbox, channels ...notification.Channel) *notification.Record {
	t.Helper()
	rendered := make(map[notification.Channel]notification.Content, len(channels))
	for _, ch := range channels {
		rendered[ch] = notification.Content{To: "recipient", Subject: "주문 안내", HTML: "<p>hi</p>", Text: "hi"}
	}
	record := notification.NewRecord(testNode(t).GenerateID(), notification.EventOrderPaid, orderPaidPayload(), channels, rendered, "")
	store.Put(record)
	return record
}

func TestDispatch_AllChannelsSucceed(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	email := testhelper.NewStubAdapter(notification.ChannelEmail)
	sms := testhelper.NewStubAdapter(notification.ChannelSMS)
	uc := newDispatchForTest(store, time.Second, email, sms)

	record := seedQueued(t, store, notification.ChannelEmail, notification.ChannelSMS)

	out, err := uc.Execute(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, out.Status)
	assert.Empty(t, out.LastError)
	require.NotNil(t, out.SentAt)
	require.NotNil(t, out.LastTriedAt)
	assert.Equal(t, 1, email.Calls())
	assert.Equal(t, 1, sms.Calls())
}

func TestDispatch_PartialFailure(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	email := testhelper.NewStubAdapter(notification.ChannelEmail)
	sms := testhelper.NewStubAdapter(notification.ChannelSMS)
	sms.Err = errors.New("gateway returned 500")
	uc := newDispatchForTest(store, time.Second, email, sms)

	record := seedQueued(t, store, notification.ChannelEmail, notification.ChannelSMS)

	out, err := uc.Execute(context.Background(), record.ID)
	require.NoError(t, err, "delivery failure is recorded on the record, not returned")
	assert.Equal(t, notification.StatusFailed, out.Status)
	assert.Contains(t, out.LastError, "sms")
	assert.Contains(t, out.LastError, "gateway returned 500")
	assert.Contains(t, out.LastError, "email: ok")
	assert.Equal(t, 0, out.Retries, "a first failed attempt is not a retry")
	assert.Nil(t, out.SentAt)
	require.NotNil(t, out.LastTriedAt)
}

func TestDispatch_SentIsNoOp(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	email := testhelper.NewStubAdapter(notification.ChannelEmail)
	uc := newDispatchForTest(store, time.Second, email)

	record := seedQueued(t, store, notification.ChannelEmail)
	now := time.Now().UTC()
	ok, err := store.CASStatus(context.Background(), record.ID, notification.StatusQueued, notification.StatusSent, notification.StatusFields{SentAt: &now})
	require.NoError(t, err)
	require.True(t, ok)

	out, err := uc.Execute(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, out.Status)
	assert.Equal(t, 0, email.Calls(), "a duplicate trigger must not resend")
}

func TestDispatch_NoRenderedContent(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	uc := newDispatchForTest(store, time.Second, testhelper.NewStubAdapter(notification.ChannelEmail))

	record := notification.NewRecord(testNode(t).GenerateID(), notification.EventOrderPaid, orderPaidPayload(), []notification.Channel{notification.ChannelEmail}, nil, "")
	store.Put(record)

	_, err := uc.Execute(context.Background(), record.ID)
	assert.ErrorIs(t, err, notification.ErrInvalidState)

	stored, getErr := store.Get(context.Background(), record.ID)
	require.NoError(t, getErr)
	assert.Equal(t, notification.StatusQueued, stored.Status, "rejection happens before any state change")
}

func TestDispatch_UnknownRecord(t *testing.T) {
	uc := newDispatchForTest(testhelper.NewMemoryOutbox(), time.Second)

	_, err := uc.Execute(context.Background(), 404)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestDispatch_ConcurrentSingleWinner(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	email := testhelper.NewStubAdapter(notification.ChannelEmail)
	// The delay keeps the record in dispatching long enough that both racers
	// reach the CAS before either outcome lands.
	email.Delay = 50 * time.Millisecond
	uc := newDispatchForTest(store, time.Second, email)

	record := seedQueued(t, store, notification.ChannelEmail)

	const racers = 2
	errs := make([]error, racers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = uc.Execute(context.Background(), record.ID)
		}(i)
	}
	close(start)
	wg.Wait()

	var conflicts, wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, notification.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, email.Calls(), "the loser must not touch any adapter")

	out, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, out.Status)
}

func TestDispatch_ChannelTimeout(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	email := testhelper.NewStubAdapter(notification.ChannelEmail)
	email.Delay = 500 * time.Millisecond
	uc := newDispatchForTest(store, 50*time.Millisecond, email)

	record := seedQueued(t, store, notification.ChannelEmail)

	out, err := uc.Execute(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, out.Status)
	assert.Contains(t, out.LastError, "email")
}

func TestDispatch_MissingAdapter(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	// Only email is wired; the record also wants chat.
	uc := newDispatchForTest(store, time.Second, testhelper.NewStubAdapter(notification.ChannelEmail))

	record := seedQueued(t, store, notification.ChannelEmail, notification.ChannelChat)

	out, err := uc.Execute(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailed, out.Status)
	assert.Contains(t, out.LastError, "chat")
	assert.Contains(t, out.LastError, "no adapter")
}

func TestDispatch_StoreUnavailable(t *testing.T) {
	store := testhelper.NewMemoryOutbox()
	record := seedQueued(t, store, notification.ChannelEmail)
	store.FailWith = notification.ErrStoreUnavailable
	uc := newDispatchForTest(store, time.Second, testhelper.NewStubAdapter(notification.ChannelEmail))

	_, err := uc.Execute(context.Background(), record.ID)
	assert.ErrorIs(t, err, notification.ErrStoreUnavailable)
}
