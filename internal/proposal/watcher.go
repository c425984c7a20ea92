// Package proposal tracks multisig proposals until their instructions execute on-chain
// and then runs the follow-up registered for each of them exactly once.
package proposal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/pkg/events"
)

//go:generate mockgen -destination mock_proposal/mock_proposal.go -package mock_proposal -source watcher.go

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 200
	DefaultTimeout      = 10 * time.Minute
)

var (
	ErrStopped   = errors.New("proposal watcher stopped")
	ErrInvalidID = errors.New("proposal id is empty")
)

// StatusReader queries the on-chain status of a proposal.
type StatusReader interface {
	ProposalStatus(ctx context.Context, id string) (ledger.ProposalStatus, error)
}

// Callback is the follow-up of a proposal. It runs at most once, after execution was observed.
type Callback func(ctx context.Context) error

// CallbackFactory rebuilds the follow-up and the invalidation hook of a persisted registration.
type CallbackFactory func(rec Record) (onExecuted Callback, invalidate func(), err error)

type Config struct {
	PollInterval time.Duration
	MaxAttempts  uint
	Timeout      time.Duration
	Retry        retrypolicy.Policy
	// Store is optional, without it pending registrations do not survive a restart.
	Store  *Store
	Logger logrus.FieldLogger
}

func (c *Config) sanitize() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retry.Limit == 0 {
		c.Retry = retrypolicy.NoRetry()
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
}

// Pending is a snapshot of one registration.
type Pending struct {
	ProposalID     string    `json:"proposal_id"`
	Memo           string    `json:"memo"`
	Kind           string    `json:"kind,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	RegistrationID string    `json:"registration_id"`
	RegisteredAt   time.Time `json:"registered_at"`
	Phase          string    `json:"phase"`
	Attempts       uint      `json:"attempts"`
}

type Option func(*entry)

// WithKind tags the registration so it can be persisted and rebuilt by the factory of kind.
func WithKind(kind, subject string) Option {
	return func(e *entry) {
		e.kind = kind
		e.subject = subject
	}
}

// WithInvalidate sets the hook run when the proposal times out or is abandoned.
func WithInvalidate(fn func()) Option {
	return func(e *entry) {
		e.invalidate = fn
	}
}

type entry struct {
	id             string
	memo           string
	kind           string
	subject        string
	registrationID string
	registeredAt   time.Time
	attempts       uint
	onExecuted     Callback
	invalidate     func()
	phase          *fsm.FSM
}

func (e *entry) snapshot() Pending {
	return Pending{
		ProposalID:     e.id,
		Memo:           e.memo,
		Kind:           e.kind,
		Subject:        e.subject,
		RegistrationID: e.registrationID,
		RegisteredAt:   e.registeredAt,
		Phase:          e.phase.Current(),
		Attempts:       e.attempts,
	}
}

func (e *entry) record() Record {
	return Record{
		ProposalID:     e.id,
		Memo:           e.memo,
		Kind:           e.kind,
		Subject:        e.subject,
		RegistrationID: e.registrationID,
		RegisteredAt:   e.registeredAt,
	}
}

// Watcher owns the registry of pending proposals. There is one poll loop per proposal
// id and at most one stored callback, so a callback can never fire twice.
type Watcher struct {
	cfg    Config
	reader StatusReader
	store  *Store
	logger logrus.FieldLogger

	lock      sync.Mutex
	entries   map[string]*entry
	factories map[string]CallbackFactory
	stopped   bool

	feed event.Feed
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, reader StatusReader) *Watcher {
	cfg.sanitize()
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:       cfg,
		reader:    reader,
		store:     cfg.Store,
		logger:    cfg.Logger,
		entries:   make(map[string]*entry),
		factories: make(map[string]CallbackFactory),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// RegisterFactory must be called before Start for every kind found in the store.
func (w *Watcher) RegisterFactory(kind string, factory CallbackFactory) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.factories[kind] = factory
}

// Start re-arms the registrations found in the store.
func (w *Watcher) Start() error {
	if w.store == nil {
		return nil
	}
	records, err := w.store.List()
	if err != nil {
		return err
	}

	for _, rec := range records {
		w.lock.Lock()
		factory, ok := w.factories[rec.Kind]
		w.lock.Unlock()
		if !ok {
			w.logger.WithFields(logrus.Fields{"proposal": rec.ProposalID, "kind": rec.Kind}).Warn("No factory for persisted proposal, dropping it")
			_ = w.store.Delete(rec.ProposalID)
			continue
		}
		onExecuted, invalidate, err := factory(rec)
		if err != nil {
			w.logger.WithFields(logrus.Fields{"proposal": rec.ProposalID, "kind": rec.Kind, "err": err}).Warn("Rebuild persisted proposal failed, dropping it")
			_ = w.store.Delete(rec.ProposalID)
			continue
		}

		e := &entry{
			id:             rec.ProposalID,
			memo:           rec.Memo,
			kind:           rec.Kind,
			subject:        rec.Subject,
			registrationID: rec.RegistrationID,
			registeredAt:   rec.RegisteredAt,
			onExecuted:     onExecuted,
			invalidate:     invalidate,
			phase:          newPhase(),
		}
		if _, err := w.add(e); err != nil {
			return err
		}
		w.logger.WithFields(logrus.Fields{"proposal": rec.ProposalID, "kind": rec.Kind}).Info("Resume watching proposal")
	}
	return nil
}

// Stop cancels every poll loop and tears the registry down. Loops that were in flight
// never touch the registry or fire callbacks afterwards. Persisted entries are kept.
func (w *Watcher) Stop() {
	w.lock.Lock()
	if w.stopped {
		w.lock.Unlock()
		return
	}
	w.stopped = true
	n := len(w.entries)
	w.entries = make(map[string]*entry)
	w.lock.Unlock()

	w.cancel()
	w.wg.Wait()
	pendingGauge.Sub(float64(n))
	w.logger.WithField("dropped", n).Info("Proposal watcher stopped")
}

// Register attaches onExecuted to proposal id. Registering an id that is already watched
// replaces its callback, keeps its poll loop and returns the new registration id.
func (w *Watcher) Register(id string, onExecuted Callback, memo string, opts ...Option) (string, error) {
	if id == "" {
		return "", ErrInvalidID
	}
	e := &entry{
		id:             id,
		memo:           memo,
		registrationID: uuid.NewString(),
		registeredAt:   time.Now(),
		onExecuted:     onExecuted,
		phase:          newPhase(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := w.addOrReplace(e); err != nil {
		return "", err
	}
	return e.registrationID, nil
}

func (w *Watcher) add(e *entry) (bool, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.stopped {
		return false, ErrStopped
	}
	if _, ok := w.entries[e.id]; ok {
		return false, nil
	}
	w.entries[e.id] = e
	w.wg.Add(1)
	go w.watch(e)
	pendingGauge.Inc()
	return true, nil
}

func (w *Watcher) addOrReplace(e *entry) error {
	w.lock.Lock()
	if w.stopped {
		w.lock.Unlock()
		return ErrStopped
	}

	old, replaced := w.entries[e.id]
	var prev Pending
	if replaced {
		prev = old.snapshot()
		w.unpersist(old)
		old.memo = e.memo
		old.kind = e.kind
		old.subject = e.subject
		old.registrationID = e.registrationID
		old.registeredAt = e.registeredAt
		old.onExecuted = e.onExecuted
		old.invalidate = e.invalidate
		e = old
	} else {
		w.entries[e.id] = e
		w.wg.Add(1)
		go w.watch(e)
		pendingGauge.Inc()
	}
	w.persist(e)
	w.lock.Unlock()

	if replaced {
		w.logger.WithFields(logrus.Fields{
			"proposal":     e.id,
			"previous":     prev.RegistrationID,
			"registration": e.registrationID,
		}).Warn("Proposal already registered, replacing its callback")
		w.publish(prev, events.ProposalReplaced, nil)
		return nil
	}
	w.logger.WithFields(logrus.Fields{
		"proposal":     e.id,
		"registration": e.registrationID,
		"memo":         e.memo,
	}).Info("Watching proposal")
	return nil
}

// persist must be called with the lock held.
func (w *Watcher) persist(e *entry) {
	if w.store == nil || e.kind == "" {
		return
	}
	if err := w.store.Put(e.record()); err != nil {
		w.logger.WithFields(logrus.Fields{"proposal": e.id, "err": err}).Warn("Persist pending proposal failed")
	}
}

// unpersist must be called with the lock held.
func (w *Watcher) unpersist(e *entry) {
	if w.store == nil || e.kind == "" {
		return
	}
	if err := w.store.Delete(e.id); err != nil {
		w.logger.WithFields(logrus.Fields{"proposal": e.id, "err": err}).Warn("Delete pending proposal failed")
	}
}

func (w *Watcher) watch(e *entry) {
	defer w.wg.Done()

	timeout := time.NewTimer(w.cfg.Timeout)
	defer timeout.Stop()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := uint(1); ; attempt++ {
		status, err := w.queryStatus(e.id)
		if w.ctx.Err() != nil {
			return
		}

		if err != nil {
			w.logger.WithFields(logrus.Fields{"proposal": e.id, "attempt": attempt, "err": err}).Warn("Query proposal status failed")
		} else {
			switch status {
			case ledger.ProposalExecuted:
				w.settleExecuted(e)
				return
			case ledger.ProposalRejected:
				w.settleUnobserved(e, eventAbandon, events.ProposalAbandoned)
				return
			case ledger.ProposalAwaitingExecution:
				advance(e.phase, eventObserve)
			}
		}

		w.lock.Lock()
		e.attempts = attempt
		w.lock.Unlock()

		if attempt >= w.cfg.MaxAttempts {
			w.settleUnobserved(e, eventTimeOut, events.ProposalTimedOut)
			return
		}

		select {
		case <-w.ctx.Done():
			return
		case <-timeout.C:
			w.settleUnobserved(e, eventTimeOut, events.ProposalTimedOut)
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) queryStatus(id string) (ledger.ProposalStatus, error) {
	var status ledger.ProposalStatus
	err := w.cfg.Retry.Do(w.ctx, func(attempt uint) error {
		var err error
		status, err = w.reader.ProposalStatus(w.ctx, id)
		return err
	})
	if err != nil {
		pollCounter.WithLabelValues("error").Inc()
		return status, err
	}
	pollCounter.WithLabelValues(status.String()).Inc()
	return status, nil
}

// take removes e from the registry. It fails when e was replaced by a teardown.
func (w *Watcher) take(e *entry, transition string) (Pending, Callback, func(), bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.stopped || w.entries[e.id] != e {
		return Pending{}, nil, nil, false
	}
	delete(w.entries, e.id)
	w.unpersist(e)
	pendingGauge.Dec()
	advance(e.phase, transition)
	return e.snapshot(), e.onExecuted, e.invalidate, true
}

func (w *Watcher) settleExecuted(e *entry) {
	p, onExecuted, _, ok := w.take(e, eventExecute)
	if !ok {
		return
	}

	advance(e.phase, eventRunCallback)
	err := w.runCallback(onExecuted)
	advance(e.phase, eventFinish)

	if err != nil {
		w.logger.WithFields(logrus.Fields{"proposal": p.ProposalID, "memo": p.Memo, "err": err}).Error("Proposal executed but its follow-up failed")
		w.publish(p, events.ProposalCallbackFailed, err)
		return
	}
	w.logger.WithFields(logrus.Fields{"proposal": p.ProposalID, "memo": p.Memo}).Info("Proposal executed")
	w.publish(p, events.ProposalExecuted, nil)
}

// settleUnobserved handles registrations that will never see their callback run.
// Dependent state is still invalidated.
func (w *Watcher) settleUnobserved(e *entry, transition string, outcome events.ProposalOutcome) {
	p, _, invalidate, ok := w.take(e, transition)
	if !ok {
		return
	}
	if invalidate != nil {
		_ = w.runCallback(func(context.Context) error {
			invalidate()
			return nil
		})
	}
	w.logger.WithFields(logrus.Fields{
		"proposal": p.ProposalID,
		"memo":     p.Memo,
		"attempts": p.Attempts,
		"outcome":  outcome.String(),
	}).Warn("Stop watching proposal")
	w.publish(p, outcome, nil)
}

func (w *Watcher) runCallback(cb Callback) (err error) {
	if cb == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("callback panicked: %v", r)
		}
	}()
	return cb(w.ctx)
}

func (w *Watcher) publish(p Pending, outcome events.ProposalOutcome, err error) {
	outcomeCounter.WithLabelValues(outcome.String()).Inc()
	w.feed.Send(events.ProposalEvent{
		ProposalID: p.ProposalID,
		Memo:       p.Memo,
		Kind:       p.Kind,
		Subject:    p.Subject,
		Outcome:    outcome,
		Err:        err,
		At:         time.Now(),
	})
}

// SubscribeEvent delivers every settlement and replacement. Subscribers must keep
// reading, the feed blocks until every subscriber received the event.
func (w *Watcher) SubscribeEvent(ch chan<- events.ProposalEvent) event.Subscription {
	return w.feed.Subscribe(ch)
}

func (w *Watcher) Lookup(id string) (Pending, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	e, ok := w.entries[id]
	if !ok {
		return Pending{}, false
	}
	return e.snapshot(), true
}

// Pending lists the registry, oldest registration first.
func (w *Watcher) Pending() []Pending {
	w.lock.Lock()
	list := make([]Pending, 0, len(w.entries))
	for _, e := range w.entries {
		list = append(list, e.snapshot())
	}
	w.lock.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].RegisteredAt.Before(list[j].RegisteredAt)
	})
	return list
}
