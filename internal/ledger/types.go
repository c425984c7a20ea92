// Package ledger holds chain-agnostic views of the on-chain records the settlement layer reads.
package ledger

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination mock_ledger/mock_ledger.go -package mock_ledger -source types.go

// Reader is the ledger query interface used for history scans.
type Reader interface {
	// ListRecentSignatures returns at most limit signatures for address, newest first.
	ListRecentSignatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error)

	GetTransaction(ctx context.Context, signature string) (*TransactionRecord, error)
}

type SignatureInfo struct {
	Signature string
	BlockTime *time.Time
	Failed    bool
}

// ParsedInstruction is an instruction as decoded by the RPC node. ParsedData holds the
// node's parsed form when it is a plain string (memo program), empty otherwise.
type ParsedInstruction struct {
	ProgramID  string
	ParsedData string
}

// TransactionRecord is an immutable snapshot of a fetched transaction.
type TransactionRecord struct {
	Signature         string
	BlockTime         *time.Time
	Succeeded         bool
	LogLines          []string
	InnerInstructions []ParsedInstruction
}

type ProposalStatus uint8

const (
	// ProposalPendingCreation: the proposal account is not visible yet.
	ProposalPendingCreation ProposalStatus = iota
	ProposalAwaitingExecution
	ProposalExecuted
	// ProposalRejected covers rejected and cancelled proposals, neither can execute anymore.
	ProposalRejected
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPendingCreation:
		return "pending_creation"
	case ProposalAwaitingExecution:
		return "awaiting_execution"
	case ProposalExecuted:
		return "executed"
	case ProposalRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s ProposalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ProposalStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []ProposalStatus{ProposalPendingCreation, ProposalAwaitingExecution, ProposalExecuted, ProposalRejected} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown proposal status %q", text)
}

// ProposalInfo describes a freshly created multisig proposal.
type ProposalInfo struct {
	ProposalID        string `json:"proposal_id"`
	MultisigAddress   string `json:"multisig_address"`
	ProposalIndex     uint64 `json:"proposal_index"`
	ProposalURL       string `json:"proposal_url"`
	CreationSignature string `json:"creation_signature"`
}
