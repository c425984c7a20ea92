package retrypolicy

import (
	"context"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/pkg/errors"

	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const (
	DefaultLimit = 3
	DefaultWait  = 500 * time.Millisecond
)

// Policy is a bounded retry policy. Limit counts every attempt, the first one included.
type Policy struct {
	Limit   uint
	Wait    time.Duration
	Backoff string
}

func FromConfig(c repo.Retry) Policy {
	p := Policy{
		Limit:   c.Limit,
		Wait:    c.Wait.ToDuration(),
		Backoff: c.Backoff,
	}
	p.sanitize()
	return p
}

// NoRetry runs the action exactly once.
func NoRetry() Policy {
	return Policy{Limit: 1, Wait: 0, Backoff: repo.BackoffFixed}
}

func (p *Policy) sanitize() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Wait < 0 {
		p.Wait = DefaultWait
	}
	switch p.Backoff {
	case repo.BackoffFixed, repo.BackoffFibonacci, repo.BackoffExponential:
	default:
		p.Backoff = repo.BackoffFixed
	}
}

func (p Policy) algorithm() backoff.Algorithm {
	switch p.Backoff {
	case repo.BackoffFibonacci:
		return backoff.Fibonacci(p.Wait)
	case repo.BackoffExponential:
		return backoff.BinaryExponential(p.Wait)
	default:
		wait := p.Wait
		return func(attempt uint) time.Duration {
			return wait
		}
	}
}

// wait sleeps between attempts and gives up as soon as ctx is done. Attempts are
// numbered from 1, the first one never waits.
func (p Policy) wait(ctx context.Context) strategy.Strategy {
	algo := p.algorithm()
	return func(attempt uint) bool {
		if ctx.Err() != nil {
			return false
		}
		if attempt <= 1 {
			return true
		}
		d := algo(attempt - 1)
		if d <= 0 {
			return true
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs action until it succeeds, returns a permanent error, the attempts run out
// or ctx is done. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, action func(attempt uint) error) error {
	p.sanitize()

	var (
		stop error
		ran  bool
	)
	err := retry.Retry(func(attempt uint) error {
		ran = true
		err := action(attempt)
		var perm *permanentError
		if errors.As(err, &perm) {
			stop = perm.err
			return nil
		}
		return err
	}, strategy.Limit(p.Limit), p.wait(ctx))
	if stop != nil {
		return stop
	}
	if !ran {
		return ctx.Err()
	}
	return err
}
