package settle

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/app"
	"github.com/crunchdao/coordinator-settle/internal/enrollment"
	"github.com/crunchdao/coordinator-settle/internal/executor"
	"github.com/crunchdao/coordinator-settle/internal/multisig"
	"github.com/crunchdao/coordinator-settle/internal/proposal"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

var ErrEmptyProposalID = errors.New("proposal id is empty")

//go:generate mockgen -destination mock_settle/mock_settle.go -package mock_settle -source settle_api.go

// Backend is what the settle namespace reads from the running settlement layer.
type Backend interface {
	EnrollmentStatus(ctx context.Context, address string) (enrollment.State, error)
	EnrollmentStatuses(ctx context.Context, addresses []string) ([]enrollment.Result, error)
	ExecutionMode() executor.Mode
	Authority() solana.PublicKey
	PendingProposals() []proposal.Pending
	ProposalStatus(ctx context.Context, id string) (*multisig.ProposalDetails, *proposal.Pending, error)
	ApproveProposal(ctx context.Context, id string) (string, error)
	ExecuteProposal(ctx context.Context, id string) (string, error)
	EnrollCertificate(ctx context.Context, certPub string) (*app.EnrollmentResult, error)
}

type SettleAPI struct {
	rep     *repo.Repo
	backend Backend
	logger  logrus.FieldLogger
}

func NewSettleAPI(rep *repo.Repo, backend Backend, logger logrus.FieldLogger) *SettleAPI {
	return &SettleAPI{rep: rep, backend: backend, logger: logger}
}

// EnrollmentStatusResult carries the last known state. Error is set when the refresh
// failed and State is the state known before the failure.
type EnrollmentStatusResult struct {
	Address string           `json:"address"`
	State   enrollment.State `json:"state"`
	Error   string           `json:"error,omitempty"`
}

// EnrollmentStatus answers settle_enrollmentStatus. The address defaults to the session authority.
func (api *SettleAPI) EnrollmentStatus(ctx context.Context, address *string) (*EnrollmentStatusResult, error) {
	addr := ""
	if address != nil {
		addr = *address
	}
	if addr == "" {
		addr = api.backend.Authority().String()
	}

	state, err := api.backend.EnrollmentStatus(ctx, addr)
	if err != nil {
		if state == nil {
			return nil, err
		}
		api.logger.WithFields(logrus.Fields{"address": addr, "err": err}).Warn("Serve last known enrollment state")
		return &EnrollmentStatusResult{Address: addr, State: state, Error: err.Error()}, nil
	}
	return &EnrollmentStatusResult{Address: addr, State: state}, nil
}

// EnrollmentStatuses answers settle_enrollmentStatuses. A failed address carries its error
// and the last known state, if any, instead of failing the batch.
func (api *SettleAPI) EnrollmentStatuses(ctx context.Context, addresses []string) ([]*EnrollmentStatusResult, error) {
	results, err := api.backend.EnrollmentStatuses(ctx, addresses)
	if err != nil {
		return nil, err
	}
	return lo.Map(results, func(r enrollment.Result, _ int) *EnrollmentStatusResult {
		res := &EnrollmentStatusResult{Address: r.Address, State: r.State}
		if r.Err != nil {
			res.Error = r.Err.Error()
		}
		return res
	}), nil
}

func (api *SettleAPI) ExecutionMode() executor.Mode {
	return api.backend.ExecutionMode()
}

func (api *SettleAPI) Authority() string {
	return api.backend.Authority().String()
}

func (api *SettleAPI) PendingProposals() []proposal.Pending {
	return api.backend.PendingProposals()
}

type ProposalStatusResult struct {
	ProposalID string `json:"proposal_id"`
	*multisig.ProposalDetails
	Pending *proposal.Pending `json:"pending,omitempty"`
}

func (api *SettleAPI) ProposalStatus(ctx context.Context, id string) (*ProposalStatusResult, error) {
	if id == "" {
		return nil, ErrEmptyProposalID
	}
	details, pending, err := api.backend.ProposalStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProposalStatusResult{ProposalID: id, ProposalDetails: details, Pending: pending}, nil
}

type ProposalActionResult struct {
	ProposalID string `json:"proposal_id"`
	Signature  string `json:"signature"`
}

// ApproveProposal answers settle_approveProposal with the session wallet as voter.
func (api *SettleAPI) ApproveProposal(ctx context.Context, id string) (*ProposalActionResult, error) {
	return api.proposalAction(ctx, id, "approve", api.backend.ApproveProposal)
}

// ExecuteProposal answers settle_executeProposal.
func (api *SettleAPI) ExecuteProposal(ctx context.Context, id string) (*ProposalActionResult, error) {
	return api.proposalAction(ctx, id, "execute", api.backend.ExecuteProposal)
}

func (api *SettleAPI) proposalAction(ctx context.Context, id, action string, fn func(context.Context, string) (string, error)) (*ProposalActionResult, error) {
	if id == "" {
		return nil, ErrEmptyProposalID
	}
	sig, err := fn(ctx, id)
	if err != nil {
		api.logger.WithFields(logrus.Fields{"proposal": id, "action": action, "err": err}).Warn("Proposal action failed")
		return nil, err
	}
	return &ProposalActionResult{ProposalID: id, Signature: sig}, nil
}

// EnrollCertificate answers settle_enrollCertificate. In proposed mode it returns once the
// proposal exists, the daemon keeps watching it.
func (api *SettleAPI) EnrollCertificate(ctx context.Context, certPub string) (*app.EnrollmentResult, error) {
	res, err := api.backend.EnrollCertificate(ctx, certPub)
	if err != nil {
		api.logger.WithFields(logrus.Fields{"cert_pub": certPub, "err": err}).Warn("Enroll certificate failed")
		return nil, err
	}
	return res, nil
}
