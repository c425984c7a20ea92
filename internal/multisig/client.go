// Package multisig creates vault transactions and proposals on a Squads v4 multisig, reads
// their voting state back and lets the session wallet approve and execute them.
package multisig

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/chain"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

//go:generate mockgen -destination mock_multisig/mock_multisig.go -package mock_multisig -source client.go

// Squads proposal status variants in declaration order.
const (
	statusDraft uint8 = iota
	statusActive
	statusRejected
	statusApproved
	statusExecuting
	statusExecuted
	statusCancelled
)

var chainStatusNames = map[uint8]string{
	statusDraft:     "draft",
	statusActive:    "active",
	statusRejected:  "rejected",
	statusApproved:  "approved",
	statusExecuting: "executing",
	statusExecuted:  "executed",
	statusCancelled: "cancelled",
}

var (
	ErrMalformedAccount = errors.New("malformed multisig account")
	ErrProposalNotFound = errors.New("proposal account not found")
	ErrNotActive        = errors.New("proposal is not active")
	ErrNotApproved      = errors.New("proposal is not approved")
	ErrAlreadyApproved  = errors.New("proposal already approved by this member")
	ErrNotMember        = errors.New("session wallet is not a multisig member with the required permission")
)

// Chain is the ledger access the backend needs.
type Chain interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (string, error)
}

type Config struct {
	ProgramID         solana.PublicKey
	Multisig          solana.PublicKey
	VaultIndex        uint8
	Creator           solana.PublicKey
	ProposalURLFormat string
	Logger            logrus.FieldLogger
}

// ConfigFromRepo maps the multisig section of the repo config. The creator is the
// session wallet and pays rent.
func ConfigFromRepo(c repo.Multisig, creator solana.PublicKey, logger logrus.FieldLogger) (Config, error) {
	cfg := Config{
		VaultIndex:        c.VaultIndex,
		Creator:           creator,
		ProposalURLFormat: c.ProposalURLFormat,
		Logger:            logger,
	}
	var err error
	if cfg.Multisig, err = solana.PublicKeyFromBase58(c.Address); err != nil {
		return Config{}, errors.Wrapf(err, "multisig address %q", c.Address)
	}
	programID := c.ProgramID
	if programID == "" {
		programID = repo.SquadsProgramID
	}
	if cfg.ProgramID, err = solana.PublicKeyFromBase58(programID); err != nil {
		return Config{}, errors.Wrapf(err, "multisig program id %q", programID)
	}
	return cfg, nil
}

type Client struct {
	cfg    Config
	chain  Chain
	vault  solana.PublicKey
	logger logrus.FieldLogger
}

func New(cfg Config, chain Chain) (*Client, error) {
	if cfg.Multisig.IsZero() {
		return nil, errors.New("multisig address is empty")
	}
	if cfg.Creator.IsZero() {
		return nil, errors.New("proposal creator is empty")
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = solana.MustPublicKeyFromBase58(repo.SquadsProgramID)
	}
	if cfg.ProposalURLFormat == "" {
		cfg.ProposalURLFormat = repo.DefaultProposalURLFormat
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	vault, err := VaultAddress(cfg.ProgramID, cfg.Multisig, cfg.VaultIndex)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		chain:  chain,
		vault:  vault,
		logger: cfg.Logger,
	}, nil
}

// Vault is the authority instructions must name when they run through the multisig.
func (c *Client) Vault() solana.PublicKey {
	return c.vault
}

func (c *Client) Address() solana.PublicKey {
	return c.cfg.Multisig
}

// CreateProposal wraps instructions in a vault transaction at the next transaction index
// and opens an active proposal for it, both in one transaction.
func (c *Client) CreateProposal(ctx context.Context, instructions []solana.Instruction, memo string) (*ledger.ProposalInfo, error) {
	current, err := c.TransactionIndex(ctx)
	if err != nil {
		return nil, err
	}
	index := current + 1

	msg, err := CompileMessage(c.vault, instructions)
	if err != nil {
		return nil, err
	}
	raw, err := msg.MarshalBinary()
	if err != nil {
		return nil, err
	}

	transaction, err := TransactionAddress(c.cfg.ProgramID, c.cfg.Multisig, index)
	if err != nil {
		return nil, err
	}
	proposal, err := ProposalAddress(c.cfg.ProgramID, c.cfg.Multisig, index)
	if err != nil {
		return nil, err
	}

	createTx, err := (&VaultTransactionCreate{
		ProgramID:   c.cfg.ProgramID,
		Multisig:    c.cfg.Multisig,
		Transaction: transaction,
		Creator:     c.cfg.Creator,
		RentPayer:   c.cfg.Creator,
		VaultIndex:  c.cfg.VaultIndex,
		Message:     raw,
		Memo:        memo,
	}).Build()
	if err != nil {
		return nil, err
	}
	createProposal, err := (&ProposalCreate{
		ProgramID:        c.cfg.ProgramID,
		Multisig:         c.cfg.Multisig,
		Proposal:         proposal,
		Creator:          c.cfg.Creator,
		RentPayer:        c.cfg.Creator,
		TransactionIndex: index,
	}).Build()
	if err != nil {
		return nil, err
	}

	sig, err := c.chain.SendAndConfirm(ctx, []solana.Instruction{createTx, createProposal})
	if err != nil {
		return nil, errors.Wrapf(err, "create proposal %d", index)
	}

	info := &ledger.ProposalInfo{
		ProposalID:        proposal.String(),
		MultisigAddress:   c.cfg.Multisig.String(),
		ProposalIndex:     index,
		ProposalURL:       fmt.Sprintf(c.cfg.ProposalURLFormat, c.cfg.Multisig, transaction),
		CreationSignature: sig,
	}
	c.logger.WithFields(logrus.Fields{
		"proposal":  info.ProposalID,
		"index":     index,
		"signature": sig,
		"memo":      memo,
	}).Info("Proposal created")
	return info, nil
}

// TransactionIndex reads the index of the last vault transaction of the multisig.
func (c *Client) TransactionIndex(ctx context.Context) (uint64, error) {
	ms, err := c.multisig(ctx)
	if err != nil {
		return 0, err
	}
	return ms.transactionIndex, nil
}

// ProposalStatus reads the proposal account. A missing account means the creation has not
// landed yet.
func (c *Client) ProposalStatus(ctx context.Context, id string) (ledger.ProposalStatus, error) {
	_, p, err := c.proposal(ctx, id)
	if err != nil || p == nil {
		return ledger.ProposalPendingCreation, err
	}
	return ledgerStatus(p.status), nil
}

// ProposalDetails is the voting state of a proposal as seen by the session wallet.
type ProposalDetails struct {
	Status           ledger.ProposalStatus `json:"status"`
	ChainStatus      string                `json:"chain_status,omitempty"`
	TransactionIndex uint64                `json:"transaction_index,omitempty"`
	Approved         []string              `json:"approved"`
	Rejected         []string              `json:"rejected"`
	Cancelled        []string              `json:"cancelled"`
	Threshold        uint16                `json:"threshold"`
	Members          []Member              `json:"members"`
	IsMember         bool                  `json:"is_member"`
	HasApproved      bool                  `json:"has_approved"`
}

// Details reads the proposal together with the multisig threshold and members.
func (c *Client) Details(ctx context.Context, id string) (*ProposalDetails, error) {
	_, p, err := c.proposal(ctx, id)
	if err != nil {
		return nil, err
	}
	ms, err := c.multisig(ctx)
	if err != nil {
		return nil, err
	}
	_, isMember := c.member(ms)
	d := &ProposalDetails{
		Status:    ledger.ProposalPendingCreation,
		Approved:  []string{},
		Rejected:  []string{},
		Cancelled: []string{},
		Threshold: ms.threshold,
		Members:   ms.members,
		IsMember:  isMember,
	}
	if p == nil {
		return d, nil
	}
	d.Status = ledgerStatus(p.status)
	d.ChainStatus = chainStatusNames[p.status]
	d.TransactionIndex = p.transactionIndex
	d.Approved = keyStrings(p.approved)
	d.Rejected = keyStrings(p.rejected)
	d.Cancelled = keyStrings(p.cancelled)
	d.HasApproved = lo.Contains(p.approved, c.cfg.Creator)
	return d, nil
}

// Approve casts the session wallet's approval on an active proposal.
func (c *Client) Approve(ctx context.Context, id string) (string, error) {
	address, p, err := c.proposal(ctx, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", errors.Wrapf(ErrProposalNotFound, "%s", id)
	}
	if p.status != statusActive {
		return "", errors.Wrapf(ErrNotActive, "proposal %s is %s", id, chainStatusNames[p.status])
	}
	if lo.Contains(p.approved, c.cfg.Creator) {
		return "", errors.Wrapf(ErrAlreadyApproved, "%s", id)
	}
	if err := c.requirePermission(ctx, PermissionVote); err != nil {
		return "", err
	}

	ix, err := (&ProposalApprove{
		ProgramID: c.cfg.ProgramID,
		Multisig:  c.cfg.Multisig,
		Member:    c.cfg.Creator,
		Proposal:  address,
	}).Build()
	if err != nil {
		return "", err
	}
	sig, err := c.chain.SendAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		return "", errors.Wrapf(err, "approve proposal %s", id)
	}
	c.logger.WithFields(logrus.Fields{
		"proposal":  id,
		"approvals": len(p.approved) + 1,
		"signature": sig,
	}).Info("Proposal approved")
	return sig, nil
}

// Execute runs the vault transaction of an approved proposal.
func (c *Client) Execute(ctx context.Context, id string) (string, error) {
	address, p, err := c.proposal(ctx, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", errors.Wrapf(ErrProposalNotFound, "%s", id)
	}
	if p.status != statusApproved {
		return "", errors.Wrapf(ErrNotApproved, "proposal %s is %s", id, chainStatusNames[p.status])
	}
	if err := c.requirePermission(ctx, PermissionExecute); err != nil {
		return "", err
	}

	transaction, err := TransactionAddress(c.cfg.ProgramID, c.cfg.Multisig, p.transactionIndex)
	if err != nil {
		return "", err
	}
	data, err := c.chain.AccountData(ctx, transaction)
	if err != nil {
		return "", errors.Wrapf(err, "read vault transaction %s", transaction)
	}
	vt, err := decodeVaultTransaction(data)
	if err != nil {
		return "", err
	}

	ix, err := (&VaultTransactionExecute{
		ProgramID:   c.cfg.ProgramID,
		Multisig:    c.cfg.Multisig,
		Proposal:    address,
		Transaction: transaction,
		Member:      c.cfg.Creator,
		Remaining:   vt.remainingAccounts(),
	}).Build()
	if err != nil {
		return "", err
	}
	sig, err := c.chain.SendAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		return "", errors.Wrapf(err, "execute proposal %s", id)
	}
	c.logger.WithFields(logrus.Fields{
		"proposal":  id,
		"index":     p.transactionIndex,
		"signature": sig,
	}).Info("Proposal executed")
	return sig, nil
}

func (c *Client) multisig(ctx context.Context) (*multisigState, error) {
	data, err := c.chain.AccountData(ctx, c.cfg.Multisig)
	if err != nil {
		return nil, errors.Wrap(err, "read multisig account")
	}
	ms, err := decodeMultisig(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "multisig %s", c.cfg.Multisig)
	}
	return ms, nil
}

// proposal returns a nil state when the account does not exist yet.
func (c *Client) proposal(ctx context.Context, id string) (solana.PublicKey, *proposalState, error) {
	address, err := solana.PublicKeyFromBase58(id)
	if err != nil {
		return solana.PublicKey{}, nil, errors.Wrapf(err, "proposal id %q", id)
	}
	data, err := c.chain.AccountData(ctx, address)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return address, nil, nil
	}
	if err != nil {
		return address, nil, errors.Wrapf(err, "read proposal %s", id)
	}
	p, err := decodeProposal(data)
	if err != nil {
		return address, nil, err
	}
	return address, p, nil
}

func (c *Client) member(ms *multisigState) (Member, bool) {
	creator := c.cfg.Creator.String()
	return lo.Find(ms.members, func(m Member) bool { return m.Key == creator })
}

func (c *Client) requirePermission(ctx context.Context, permission uint8) error {
	ms, err := c.multisig(ctx)
	if err != nil {
		return err
	}
	m, ok := c.member(ms)
	if !ok || !m.Can(permission) {
		return errors.Wrapf(ErrNotMember, "%s lacks permission %d", c.cfg.Creator, permission)
	}
	return nil
}

func ledgerStatus(variant uint8) ledger.ProposalStatus {
	switch variant {
	case statusExecuted:
		return ledger.ProposalExecuted
	case statusRejected, statusCancelled:
		return ledger.ProposalRejected
	default:
		return ledger.ProposalAwaitingExecution
	}
}
