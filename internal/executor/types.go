package executor

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/crunchdao/coordinator-settle/internal/ledger"
)

//go:generate mockgen -destination mock_executor/mock_executor.go -package mock_executor -source types.go

// TransactionSender signs, submits and waits for confirmation of a transaction built
// from instructions, returning its signature.
type TransactionSender interface {
	SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (string, error)
}

// ProposalCreator wraps instructions into a multisig proposal and returns once the
// creation transaction is confirmed.
type ProposalCreator interface {
	CreateProposal(ctx context.Context, instructions []solana.Instruction, memo string) (*ledger.ProposalInfo, error)
}

type Mode uint8

const (
	ModeDirect Mode = iota
	ModeProposed
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeProposed:
		return "proposed"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Request is built by the caller and never mutated by the executor.
type Request struct {
	Instructions []solana.Instruction
	Memo         string
	// Signers are extra keys co-signing the transaction, e.g. fresh account keys.
	Signers []solana.PrivateKey
}

// Result is either DirectResult or ProposedResult, decided by the executor mode alone.
type Result interface {
	Mode() Mode
}

type DirectResult struct {
	Signature string `json:"signature"`
}

func (DirectResult) Mode() Mode { return ModeDirect }

// ProposedResult is returned as soon as the proposal exists. CreationSignature proves
// the proposal was created, not that its instructions ran.
type ProposedResult struct {
	ledger.ProposalInfo
}

func (ProposedResult) Mode() Mode { return ModeProposed }
