package multisig

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var (
	vaultTransactionCreateDiscriminator  = discriminator("vault_transaction_create")
	proposalCreateDiscriminator          = discriminator("proposal_create")
	proposalApproveDiscriminator         = discriminator("proposal_approve")
	vaultTransactionExecuteDiscriminator = discriminator("vault_transaction_execute")
)

// discriminator is the 8-byte Anchor method selector.
func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

type VaultTransactionCreate struct {
	ProgramID   solana.PublicKey
	Multisig    solana.PublicKey
	Transaction solana.PublicKey
	Creator     solana.PublicKey
	RentPayer   solana.PublicKey

	VaultIndex uint8
	Message    []byte
	Memo       string
}

func (a *VaultTransactionCreate) Build() (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := writeAll(
		func() error { return enc.WriteBytes(vaultTransactionCreateDiscriminator, false) },
		func() error { return enc.WriteUint8(a.VaultIndex) },
		// ephemeral signers
		func() error { return enc.WriteUint8(0) },
		func() error { return enc.WriteBytes(a.Message, true) },
		func() error { return enc.WriteOption(a.Memo != "") },
	); err != nil {
		return nil, err
	}
	if a.Memo != "" {
		if err := enc.WriteString(a.Memo); err != nil {
			return nil, errors.Wrap(err, "encode memo")
		}
	}

	return solana.NewInstruction(a.ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Multisig, true, false),
		solana.NewAccountMeta(a.Transaction, true, false),
		solana.NewAccountMeta(a.Creator, false, true),
		solana.NewAccountMeta(a.RentPayer, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, buf.Bytes()), nil
}

type ProposalCreate struct {
	ProgramID solana.PublicKey
	Multisig  solana.PublicKey
	Proposal  solana.PublicKey
	Creator   solana.PublicKey
	RentPayer solana.PublicKey

	TransactionIndex uint64
	Draft            bool
}

func (a *ProposalCreate) Build() (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := writeAll(
		func() error { return enc.WriteBytes(proposalCreateDiscriminator, false) },
		func() error { return enc.WriteUint64(a.TransactionIndex, bin.LE) },
		func() error { return enc.WriteBool(a.Draft) },
	); err != nil {
		return nil, err
	}

	return solana.NewInstruction(a.ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Multisig, false, false),
		solana.NewAccountMeta(a.Proposal, true, false),
		solana.NewAccountMeta(a.Creator, false, true),
		solana.NewAccountMeta(a.RentPayer, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, buf.Bytes()), nil
}

type ProposalApprove struct {
	ProgramID solana.PublicKey
	Multisig  solana.PublicKey
	Member    solana.PublicKey
	Proposal  solana.PublicKey

	Memo string
}

func (a *ProposalApprove) Build() (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := writeAll(
		func() error { return enc.WriteBytes(proposalApproveDiscriminator, false) },
		func() error { return enc.WriteOption(a.Memo != "") },
	); err != nil {
		return nil, err
	}
	if a.Memo != "" {
		if err := enc.WriteString(a.Memo); err != nil {
			return nil, errors.Wrap(err, "encode memo")
		}
	}

	return solana.NewInstruction(a.ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Multisig, false, false),
		solana.NewAccountMeta(a.Member, true, true),
		solana.NewAccountMeta(a.Proposal, true, false),
	}, buf.Bytes()), nil
}

// VaultTransactionExecute runs an approved vault transaction. Remaining holds the message
// accounts in message order.
type VaultTransactionExecute struct {
	ProgramID   solana.PublicKey
	Multisig    solana.PublicKey
	Proposal    solana.PublicKey
	Transaction solana.PublicKey
	Member      solana.PublicKey

	Remaining solana.AccountMetaSlice
}

func (a *VaultTransactionExecute) Build() (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Multisig, false, false),
		solana.NewAccountMeta(a.Proposal, true, false),
		solana.NewAccountMeta(a.Transaction, false, false),
		solana.NewAccountMeta(a.Member, false, true),
	}
	return solana.NewInstruction(a.ProgramID, append(accounts, a.Remaining...), vaultTransactionExecuteDiscriminator), nil
}
