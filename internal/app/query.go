package app

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/crunchdao/coordinator-settle/internal/enrollment"
	"github.com/crunchdao/coordinator-settle/internal/executor"
	"github.com/crunchdao/coordinator-settle/internal/multisig"
	"github.com/crunchdao/coordinator-settle/internal/proposal"
)

var ErrDirectMode = errors.New("session is not in multisig mode")

// EnrollmentStatus resolves the enrollment state of address, the authority when empty.
// On a network error the last known state is returned together with the error.
func (cs *CoordinatorSettle) EnrollmentStatus(ctx context.Context, address string) (enrollment.State, error) {
	if address == "" {
		address = cs.Executor.Authority().String()
	} else if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	return cs.Enrollment.Status(ctx, address)
}

// EnrollmentStatuses resolves several addresses at once. Per-address failures are carried
// in the results, an invalid address fails the whole batch.
func (cs *CoordinatorSettle) EnrollmentStatuses(ctx context.Context, addresses []string) ([]enrollment.Result, error) {
	if len(addresses) == 0 {
		return nil, errors.New("no address given")
	}
	for _, address := range addresses {
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return nil, errors.Wrapf(err, "invalid address %q", address)
		}
	}
	return cs.Enrollment.StatusMany(ctx, addresses), nil
}

func (cs *CoordinatorSettle) ExecutionMode() executor.Mode {
	return cs.Executor.Mode()
}

func (cs *CoordinatorSettle) Authority() solana.PublicKey {
	return cs.Executor.Authority()
}

func (cs *CoordinatorSettle) PendingProposals() []proposal.Pending {
	if cs.Watcher == nil {
		return []proposal.Pending{}
	}
	return cs.Watcher.Pending()
}

// ProposalStatus reads the voting state of a proposal and, when it is still watched, its
// local registration.
func (cs *CoordinatorSettle) ProposalStatus(ctx context.Context, id string) (*multisig.ProposalDetails, *proposal.Pending, error) {
	if cs.Multisig == nil {
		return nil, nil, ErrDirectMode
	}
	details, err := cs.Multisig.Details(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := cs.Watcher.Lookup(id); ok {
		return details, &p, nil
	}
	return details, nil, nil
}

// ApproveProposal votes for the proposal with the session wallet.
func (cs *CoordinatorSettle) ApproveProposal(ctx context.Context, id string) (string, error) {
	if cs.Multisig == nil {
		return "", ErrDirectMode
	}
	return cs.Multisig.Approve(ctx, id)
}

// ExecuteProposal runs an approved proposal. A watched proposal completes on the next
// poll of the watcher.
func (cs *CoordinatorSettle) ExecuteProposal(ctx context.Context, id string) (string, error) {
	if cs.Multisig == nil {
		return "", ErrDirectMode
	}
	return cs.Multisig.Execute(ctx, id)
}
