package multisig

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var (
	seedPrefix      = []byte("multisig")
	seedVault       = []byte("vault")
	seedTransaction = []byte("transaction")
	seedProposal    = []byte("proposal")
)

// VaultAddress derives the vault PDA that signs vault transactions of the multisig.
func VaultAddress(programID, multisig solana.PublicKey, index uint8) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		seedPrefix, multisig.Bytes(), seedVault, {index},
	}, programID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "derive vault address")
	}
	return addr, nil
}

func TransactionAddress(programID, multisig solana.PublicKey, index uint64) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		seedPrefix, multisig.Bytes(), seedTransaction, le64(index),
	}, programID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "derive transaction address")
	}
	return addr, nil
}

func ProposalAddress(programID, multisig solana.PublicKey, index uint64) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		seedPrefix, multisig.Bytes(), seedTransaction, le64(index), seedProposal,
	}, programID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "derive proposal address")
	}
	return addr, nil
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
