package proposal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"go.uber.org/mock/gomock"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/internal/proposal/mock_proposal"
	"github.com/crunchdao/coordinator-settle/pkg/events"
)

type chainState struct {
	status atomic.Uint32
}

func (s *chainState) set(status ledger.ProposalStatus) {
	s.status.Store(uint32(status))
}

func (s *chainState) get() ledger.ProposalStatus {
	return ledger.ProposalStatus(s.status.Load())
}

func newTestWatcher(t *testing.T, cfg Config, ids ...string) (*Watcher, *chainState, chan events.ProposalEvent) {
	ctrl := gomock.NewController(t)
	reader := mock_proposal.NewMockStatusReader(ctrl)
	state := &chainState{}
	for _, id := range ids {
		reader.EXPECT().ProposalStatus(gomock.Any(), id).DoAndReturn(func(ctx context.Context, id string) (ledger.ProposalStatus, error) {
			return state.get(), nil
		}).AnyTimes()
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1000
	}
	w := New(cfg, reader)
	ch := make(chan events.ProposalEvent, 16)
	sub := w.SubscribeEvent(ch)
	t.Cleanup(func() {
		w.Stop()
		sub.Unsubscribe()
	})
	return w, state, ch
}

func waitEvent(t *testing.T, ch <-chan events.ProposalEvent, outcome events.ProposalOutcome) events.ProposalEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Outcome == outcome {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event received", outcome)
		}
	}
}

func TestRegisterReplaceOnlyLatestFires(t *testing.T) {
	w, state, ch := newTestWatcher(t, Config{}, "P1")

	var fCalls, gCalls atomic.Int32
	f := func(ctx context.Context) error {
		fCalls.Add(1)
		return nil
	}
	g := func(ctx context.Context) error {
		gCalls.Add(1)
		return nil
	}

	first, err := w.Register("P1", f, "first")
	require.Nil(t, err)
	second, err := w.Register("P1", g, "second")
	require.Nil(t, err)
	assert.NotEqual(t, first, second)

	replaced := waitEvent(t, ch, events.ProposalReplaced)
	assert.Equal(t, "P1", replaced.ProposalID)
	assert.Equal(t, "first", replaced.Memo)
	require.Len(t, w.Pending(), 1)

	state.set(ledger.ProposalExecuted)
	ev := waitEvent(t, ch, events.ProposalExecuted)
	assert.Equal(t, "second", ev.Memo)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fCalls.Load())
	assert.Equal(t, int32(1), gCalls.Load())
	_, ok := w.Lookup("P1")
	assert.False(t, ok)
}

func TestCallbackFailureNotRetried(t *testing.T) {
	w, state, ch := newTestWatcher(t, Config{}, "P2")

	var calls atomic.Int32
	boom := errors.New("refetch failed")
	_, err := w.Register("P2", func(ctx context.Context) error {
		calls.Add(1)
		return boom
	}, "enroll")
	require.Nil(t, err)

	state.set(ledger.ProposalExecuted)
	ev := waitEvent(t, ch, events.ProposalCallbackFailed)
	require.ErrorIs(t, ev.Err, boom)

	time.Sleep(30 * time.Millisecond)
	_, ok := w.Lookup("P2")
	assert.False(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCallbackPanicRecovered(t *testing.T) {
	w, state, ch := newTestWatcher(t, Config{}, "P3")
	state.set(ledger.ProposalExecuted)

	_, err := w.Register("P3", func(ctx context.Context) error {
		panic("nil map")
	}, "")
	require.Nil(t, err)

	ev := waitEvent(t, ch, events.ProposalCallbackFailed)
	require.NotNil(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "nil map")
	assert.Empty(t, w.Pending())
}

func TestTimeoutByAttempts(t *testing.T) {
	w, _, ch := newTestWatcher(t, Config{MaxAttempts: 3}, "P4")

	var invalidated, called atomic.Int32
	_, err := w.Register("P4", func(ctx context.Context) error {
		called.Add(1)
		return nil
	}, "slow", WithInvalidate(func() { invalidated.Add(1) }))
	require.Nil(t, err)

	ev := waitEvent(t, ch, events.ProposalTimedOut)
	assert.Equal(t, "P4", ev.ProposalID)
	assert.Nil(t, ev.Err)
	assert.Equal(t, int32(1), invalidated.Load())
	assert.Equal(t, int32(0), called.Load())
	_, ok := w.Lookup("P4")
	assert.False(t, ok)
}

func TestTimeoutByDuration(t *testing.T) {
	w, state, ch := newTestWatcher(t, Config{Timeout: 40 * time.Millisecond}, "P5")
	state.set(ledger.ProposalAwaitingExecution)

	var invalidated atomic.Int32
	_, err := w.Register("P5", nil, "", WithInvalidate(func() { invalidated.Add(1) }))
	require.Nil(t, err)

	waitEvent(t, ch, events.ProposalTimedOut)
	assert.Equal(t, int32(1), invalidated.Load())
	assert.Empty(t, w.Pending())
}

func TestRejectedIsAbandoned(t *testing.T) {
	w, state, ch := newTestWatcher(t, Config{}, "P6")

	var invalidated, called atomic.Int32
	_, err := w.Register("P6", func(ctx context.Context) error {
		called.Add(1)
		return nil
	}, "", WithInvalidate(func() { invalidated.Add(1) }))
	require.Nil(t, err)

	state.set(ledger.ProposalRejected)
	waitEvent(t, ch, events.ProposalAbandoned)
	assert.Equal(t, int32(1), invalidated.Load())
	assert.Equal(t, int32(0), called.Load())
}

func TestPhaseAndAttempts(t *testing.T) {
	w, state, _ := newTestWatcher(t, Config{PollInterval: 10 * time.Millisecond}, "P7")

	_, err := w.Register("P7", nil, "")
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		p, ok := w.Lookup("P7")
		return ok && p.Attempts >= 1 && p.Phase == PhasePendingCreation
	}, 2*time.Second, 5*time.Millisecond)

	state.set(ledger.ProposalAwaitingExecution)
	require.Eventually(t, func() bool {
		p, ok := w.Lookup("P7")
		return ok && p.Phase == PhaseAwaitingExecution
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStatusErrorRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_proposal.NewMockStatusReader(ctrl)
	gomock.InOrder(
		reader.EXPECT().ProposalStatus(gomock.Any(), "P8").Return(ledger.ProposalPendingCreation, errors.New("429")),
		reader.EXPECT().ProposalStatus(gomock.Any(), "P8").Return(ledger.ProposalExecuted, nil),
	)

	w := New(Config{
		PollInterval: time.Second,
		Retry:        retrypolicy.Policy{Limit: 3, Wait: time.Millisecond},
	}, reader)
	defer w.Stop()
	ch := make(chan events.ProposalEvent, 4)
	sub := w.SubscribeEvent(ch)
	defer sub.Unsubscribe()

	_, err := w.Register("P8", nil, "")
	require.Nil(t, err)
	waitEvent(t, ch, events.ProposalExecuted)
}

func TestStopAbandonsLoops(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_proposal.NewMockStatusReader(ctrl)
	reader.EXPECT().ProposalStatus(gomock.Any(), "P9").Return(ledger.ProposalAwaitingExecution, nil).AnyTimes()

	w := New(Config{PollInterval: 5 * time.Millisecond}, reader)
	var called atomic.Int32
	_, err := w.Register("P9", func(ctx context.Context) error {
		called.Add(1)
		return nil
	}, "")
	require.Nil(t, err)

	w.Stop()
	assert.Empty(t, w.Pending())
	assert.Equal(t, int32(0), called.Load())

	_, err = w.Register("P10", nil, "")
	require.ErrorIs(t, err, ErrStopped)
	w.Stop()
}

func TestRegisterEmptyID(t *testing.T) {
	w, _, _ := newTestWatcher(t, Config{})
	_, err := w.Register("", nil, "")
	require.ErrorIs(t, err, ErrInvalidID)
}

func newMemStore(t *testing.T) *Store {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestPersistedRegistration(t *testing.T) {
	store := newMemStore(t)
	w, state, ch := newTestWatcher(t, Config{Store: store}, "P11", "P12")

	_, err := w.Register("P11", nil, "enroll", WithKind("enrollment", "Authority1"))
	require.Nil(t, err)
	_, err = w.Register("P12", nil, "untagged")
	require.Nil(t, err)

	rec, ok, err := store.Get("P11")
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, "enrollment", rec.Kind)
	assert.Equal(t, "Authority1", rec.Subject)

	_, ok, err = store.Get("P12")
	require.Nil(t, err)
	assert.False(t, ok)

	state.set(ledger.ProposalExecuted)
	waitEvent(t, ch, events.ProposalExecuted)
	waitEvent(t, ch, events.ProposalExecuted)

	records, err := store.List()
	require.Nil(t, err)
	assert.Empty(t, records)
}

func TestStartRehydrates(t *testing.T) {
	store := newMemStore(t)
	registeredAt := time.Now().Add(-time.Hour).UTC()
	require.Nil(t, store.Put(Record{
		ProposalID:     "P13",
		Memo:           "enroll",
		Kind:           "enrollment",
		Subject:        "Authority1",
		RegistrationID: "reg-1",
		RegisteredAt:   registeredAt,
	}))
	require.Nil(t, store.Put(Record{ProposalID: "P14", Kind: "unknown"}))

	w, state, ch := newTestWatcher(t, Config{Store: store}, "P13")

	var subject atomic.Value
	w.RegisterFactory("enrollment", func(rec Record) (Callback, func(), error) {
		return func(ctx context.Context) error {
			subject.Store(rec.Subject)
			return nil
		}, nil, nil
	})
	require.Nil(t, w.Start())

	p, ok := w.Lookup("P13")
	require.True(t, ok)
	assert.Equal(t, "reg-1", p.RegistrationID)
	assert.True(t, registeredAt.Equal(p.RegisteredAt))
	_, ok = w.Lookup("P14")
	assert.False(t, ok)

	state.set(ledger.ProposalExecuted)
	ev := waitEvent(t, ch, events.ProposalExecuted)
	assert.Equal(t, "enrollment", ev.Kind)
	assert.Equal(t, "Authority1", subject.Load())

	records, err := store.List()
	require.Nil(t, err)
	assert.Empty(t, records)
}

func TestStopKeepsPersistedEntries(t *testing.T) {
	store := newMemStore(t)
	ctrl := gomock.NewController(t)
	reader := mock_proposal.NewMockStatusReader(ctrl)
	reader.EXPECT().ProposalStatus(gomock.Any(), "P15").Return(ledger.ProposalAwaitingExecution, nil).AnyTimes()

	w := New(Config{PollInterval: 5 * time.Millisecond, Store: store}, reader)
	_, err := w.Register("P15", nil, "", WithKind("enrollment", "Authority1"))
	require.Nil(t, err)
	w.Stop()

	_, ok, err := store.Get("P15")
	require.Nil(t, err)
	assert.True(t, ok)
}
