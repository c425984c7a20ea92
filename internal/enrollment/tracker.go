package enrollment

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/crunchdao/coordinator-settle/internal/history"
)

//go:generate mockgen -destination mock_enrollment/mock_enrollment.go -package mock_enrollment -source tracker.go

const (
	DefaultCacheSize      = 1024
	DefaultRefreshTimeout = 2 * time.Minute
	DefaultConcurrency    = 4
)

// HistoryScanner finds the newest accepted memo of an address.
type HistoryScanner interface {
	Scan(ctx context.Context, address string) (*history.Outcome, error)
}

// LiveValueSource returns the value currently published for an address, nil when
// there is none.
type LiveValueSource interface {
	CurrentValue(ctx context.Context, address string) (*string, error)
}

type TrackerConfig struct {
	ComparisonKey  string
	CacheSize      int
	RefreshTimeout time.Duration
	// Concurrency bounds the addresses refreshed at once by StatusMany
	Concurrency int
	Logger      logrus.FieldLogger
}

// flight is the refresh shared by every caller waiting on one address. Its context is
// owned by the tracker and only cancelled once the last waiter is gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	waiters int
}

// Tracker keeps the last known state per address. A failed refresh never replaces a
// known state, so a transient network error cannot turn an enrolled authority into
// an absent one.
type Tracker struct {
	scanner HistoryScanner
	live    LiveValueSource
	key     string
	timeout time.Duration
	workers int
	cache   *lru.Cache[string, State]
	group   singleflight.Group
	logger  logrus.FieldLogger

	lock    sync.Mutex
	flights map[string]*flight
	// gens is bumped by Invalidate, a refresh started under an older generation is not cached
	gens map[string]uint64
}

func NewTracker(cfg TrackerConfig, scanner HistoryScanner, live LiveValueSource) (*Tracker, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.ComparisonKey == "" {
		cfg.ComparisonKey = DefaultComparisonKey
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	cache, err := lru.New[string, State](cfg.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create enrollment cache")
	}
	return &Tracker{
		scanner: scanner,
		live:    live,
		key:     cfg.ComparisonKey,
		timeout: cfg.RefreshTimeout,
		workers: cfg.Concurrency,
		cache:   cache,
		logger:  cfg.Logger,
		flights: make(map[string]*flight),
		gens:    make(map[string]uint64),
	}, nil
}

// Status refreshes the state of address. Concurrent calls for one address share a
// single scan. On failure the cached state, if any, is returned along with the error.
// Cancelling ctx only abandons this caller, the shared scan stops when nobody waits.
func (t *Tracker) Status(ctx context.Context, address string) (State, error) {
	t.lock.Lock()
	f, ok := t.flights[address]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		f = &flight{ctx: fctx, cancel: cancel, gen: t.gens[address]}
		t.flights[address] = f
	}
	f.waiters++
	ch := t.group.DoChan(address, func() (any, error) {
		return t.refresh(f.ctx, address, f.gen)
	})
	t.lock.Unlock()

	select {
	case <-ctx.Done():
		t.leave(address, f, true)
		cached, _ := t.Cached(address)
		return cached, ctx.Err()
	case res := <-ch:
		t.leave(address, f, false)
		if res.Err != nil {
			cached, ok := t.Cached(address)
			t.logger.WithFields(logrus.Fields{
				"address": address,
				"cached":  ok,
				"err":     res.Err,
			}).Warn("Refresh enrollment state failed")
			return cached, res.Err
		}
		return res.Val.(State), nil
	}
}

// Result is the outcome of one address inside StatusMany. State is the last known state
// when Err is set, nil if there is none.
type Result struct {
	Address string
	State   State
	Err     error
}

// StatusMany refreshes independent addresses concurrently on a bounded pool. Each address
// goes through Status, so scans are shared with concurrent callers. Results keep the
// order of addresses.
func (t *Tracker) StatusMany(ctx context.Context, addresses []string) []Result {
	results := make([]Result, len(addresses))
	wp := workerpool.New(t.workers)
	for i, address := range addresses {
		i, address := i, address
		wp.Submit(func() {
			state, err := t.Status(ctx, address)
			results[i] = Result{Address: address, State: state, Err: err}
		})
	}
	wp.StopWait()
	return results
}

// leave drops one waiter of f. The last waiter releases the flight context; when it
// abandoned the flight, the running scan is cancelled and later callers start afresh.
func (t *Tracker) leave(address string, f *flight, abandoned bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if t.flights[address] == f {
		delete(t.flights, address)
		if abandoned {
			t.group.Forget(address)
		}
	}
	f.cancel()
}

func (t *Tracker) refresh(ctx context.Context, address string, gen uint64) (State, error) {
	outcome, err := t.scanner.Scan(ctx, address)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", address)
	}

	var live *string
	if outcome.Match != nil && t.live != nil {
		live, err = t.live.CurrentValue(ctx, address)
		if err != nil {
			return nil, errors.Wrapf(err, "lookup live value of %s", address)
		}
	}

	state := ResolveOutcome(outcome, live, t.key)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	t.lock.Lock()
	current := t.gens[address] == gen
	if current {
		t.cache.Add(address, state)
	}
	t.lock.Unlock()
	t.logger.WithFields(logrus.Fields{
		"address": address,
		"status":  state.Status(),
		"cached":  current,
	}).Debug("Enrollment state refreshed")
	return state, nil
}

// Cached returns the last known state without any I/O.
func (t *Tracker) Cached(address string) (State, bool) {
	return t.cache.Get(address)
}

// Invalidate drops the derived state of address so the next Status call rescans.
func (t *Tracker) Invalidate(address string) {
	t.lock.Lock()
	t.gens[address]++
	delete(t.flights, address)
	t.group.Forget(address)
	t.cache.Remove(address)
	t.lock.Unlock()
	t.logger.WithFields(logrus.Fields{"address": address}).Debug("Enrollment state invalidated")
}
