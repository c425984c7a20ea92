// Package executor submits action requests either as a directly signed transaction or
// as a multisig proposal. The mode is fixed when the executor is built.
package executor

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyRequest       = errors.New("action request has no instructions")
	ErrConfirmation       = errors.New("transaction not confirmed")
	ErrProposalCreation   = errors.New("proposal creation failed")
	ErrSignersUnsupported = errors.New("extra signers cannot be attached to a multisig proposal")
)

type Config struct {
	Mode      Mode
	Authority solana.PublicKey
	Logger    logrus.FieldLogger
}

type Executor struct {
	mode      Mode
	authority solana.PublicKey
	sender    TransactionSender
	creator   ProposalCreator
	logger    logrus.FieldLogger
}

// New checks that the backend required by the mode is present. The other one may be nil.
func New(cfg Config, sender TransactionSender, creator ProposalCreator) (*Executor, error) {
	switch cfg.Mode {
	case ModeDirect:
		if sender == nil {
			return nil, errors.New("direct mode requires a transaction sender")
		}
	case ModeProposed:
		if creator == nil {
			return nil, errors.New("proposed mode requires a proposal creator")
		}
	default:
		return nil, errors.Errorf("unknown execution mode %d", cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		mode:      cfg.Mode,
		authority: cfg.Authority,
		sender:    sender,
		creator:   creator,
		logger:    cfg.Logger,
	}, nil
}

func (e *Executor) Mode() Mode {
	return e.mode
}

// Authority is the account instructions should be built for: the wallet in direct
// mode, the multisig vault in proposed mode.
func (e *Executor) Authority() solana.PublicKey {
	return e.authority
}

func (e *Executor) Execute(ctx context.Context, req *Request) (res Result, err error) {
	defer func() {
		traceExecution(e.mode, err)
	}()

	if req == nil || len(req.Instructions) == 0 {
		return nil, ErrEmptyRequest
	}

	switch e.mode {
	case ModeDirect:
		return e.executeDirect(ctx, req)
	default:
		return e.executeProposed(ctx, req)
	}
}

func (e *Executor) executeDirect(ctx context.Context, req *Request) (Result, error) {
	sig, err := e.sender.SendAndConfirm(ctx, req.Instructions, req.Signers...)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"memo": req.Memo,
			"err":  err,
		}).Error("Direct execution failed")
		return nil, errors.Wrapf(ErrConfirmation, "%v", err)
	}

	e.logger.WithFields(logrus.Fields{
		"signature": sig,
		"memo":      req.Memo,
	}).Info("Transaction confirmed")
	return DirectResult{Signature: sig}, nil
}

func (e *Executor) executeProposed(ctx context.Context, req *Request) (Result, error) {
	if len(req.Signers) > 0 {
		return nil, ErrSignersUnsupported
	}

	info, err := e.creator.CreateProposal(ctx, req.Instructions, req.Memo)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"memo": req.Memo,
			"err":  err,
		}).Error("Create proposal failed")
		return nil, errors.Wrapf(ErrProposalCreation, "%v", err)
	}
	if info == nil {
		return nil, errors.Wrap(ErrProposalCreation, "backend returned no proposal")
	}

	e.logger.WithFields(logrus.Fields{
		"proposal": info.ProposalID,
		"index":    info.ProposalIndex,
		"url":      info.ProposalURL,
		"memo":     req.Memo,
	}).Info("Proposal created")
	return ProposedResult{ProposalInfo: *info}, nil
}
