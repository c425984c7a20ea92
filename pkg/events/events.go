package events

import (
	"time"
)

type ProposalOutcome uint8

const (
	// ProposalExecuted: the instructions ran on-chain and the follow-up callback succeeded.
	ProposalExecuted ProposalOutcome = iota
	// ProposalCallbackFailed: the instructions ran on-chain, only the follow-up failed.
	ProposalCallbackFailed
	// ProposalTimedOut: execution was not observed in time; it may still happen later.
	ProposalTimedOut
	// ProposalAbandoned: the multisig rejected or cancelled the proposal.
	ProposalAbandoned
	// ProposalReplaced: a newer registration replaced the pending callback.
	ProposalReplaced
)

func (o ProposalOutcome) String() string {
	switch o {
	case ProposalExecuted:
		return "executed"
	case ProposalCallbackFailed:
		return "callback_failed"
	case ProposalTimedOut:
		return "timed_out"
	case ProposalAbandoned:
		return "abandoned"
	case ProposalReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

func (o ProposalOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ProposalEvent is published by the proposal watcher whenever a tracked proposal settles.
type ProposalEvent struct {
	ProposalID string
	Memo       string
	Kind       string
	Subject    string
	Outcome    ProposalOutcome
	Err        error
	At         time.Time
}
