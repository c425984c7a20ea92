package multisig

import (
	"bytes"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrForeignSigner = errors.New("instruction requires a signer other than the vault")

type compiledInstruction struct {
	programIDIndex uint8
	accountIndexes []uint8
	data           []byte
}

// TransactionMessage is the instruction set a vault transaction executes, with the vault
// as the only signer.
type TransactionMessage struct {
	NumSigners            uint8
	NumWritableSigners    uint8
	NumWritableNonSigners uint8
	AccountKeys           []solana.PublicKey

	instructions []compiledInstruction
}

type keyMeta struct {
	key      solana.PublicKey
	signer   bool
	writable bool
}

// CompileMessage orders the accounts writable signers first, then readonly signers,
// writable non-signers and readonly non-signers. The vault is always the first key.
func CompileMessage(vault solana.PublicKey, instructions []solana.Instruction) (*TransactionMessage, error) {
	metas := []*keyMeta{{key: vault, signer: true, writable: true}}
	index := map[solana.PublicKey]*keyMeta{vault: metas[0]}
	add := func(key solana.PublicKey, signer, writable bool) {
		if m, ok := index[key]; ok {
			m.signer = m.signer || signer
			m.writable = m.writable || writable
			return
		}
		m := &keyMeta{key: key, signer: signer, writable: writable}
		index[key] = m
		metas = append(metas, m)
	}

	for _, ix := range instructions {
		for _, acc := range ix.Accounts() {
			if acc.IsSigner && !acc.PublicKey.Equals(vault) {
				return nil, errors.Wrapf(ErrForeignSigner, "%s", acc.PublicKey)
			}
			add(acc.PublicKey, acc.IsSigner, acc.IsWritable)
		}
		add(ix.ProgramID(), false, false)
	}
	if len(metas) > math.MaxUint8 {
		return nil, errors.Errorf("too many accounts: %d", len(metas))
	}

	group := func(signer, writable bool) []*keyMeta {
		return lo.Filter(metas, func(m *keyMeta, _ int) bool {
			return m.signer == signer && m.writable == writable
		})
	}
	writableSigners := group(true, true)
	readonlySigners := group(true, false)
	writableNonSigners := group(false, true)
	ordered := append(append(append(append([]*keyMeta{}, writableSigners...), readonlySigners...), writableNonSigners...), group(false, false)...)

	msg := &TransactionMessage{
		NumSigners:            uint8(len(writableSigners) + len(readonlySigners)),
		NumWritableSigners:    uint8(len(writableSigners)),
		NumWritableNonSigners: uint8(len(writableNonSigners)),
		AccountKeys: lo.Map(ordered, func(m *keyMeta, _ int) solana.PublicKey {
			return m.key
		}),
	}
	position := make(map[solana.PublicKey]uint8, len(ordered))
	for i, m := range ordered {
		position[m.key] = uint8(i)
	}

	for _, ix := range instructions {
		data, err := ix.Data()
		if err != nil {
			return nil, errors.Wrap(err, "instruction data")
		}
		if len(data) > math.MaxUint16 {
			return nil, errors.Errorf("instruction data too large: %d", len(data))
		}
		accounts := ix.Accounts()
		if len(accounts) > math.MaxUint8 {
			return nil, errors.Errorf("too many instruction accounts: %d", len(accounts))
		}
		msg.instructions = append(msg.instructions, compiledInstruction{
			programIDIndex: position[ix.ProgramID()],
			accountIndexes: lo.Map(accounts, func(acc *solana.AccountMeta, _ int) uint8 {
				return position[acc.PublicKey]
			}),
			data: data,
		})
	}
	return msg, nil
}

// MarshalBinary encodes the message with the small-vector length prefixes the multisig
// program expects: u8 for keys, instructions and account indexes, u16 for data.
func (m *TransactionMessage) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := writeAll(
		func() error { return enc.WriteUint8(m.NumSigners) },
		func() error { return enc.WriteUint8(m.NumWritableSigners) },
		func() error { return enc.WriteUint8(m.NumWritableNonSigners) },
		func() error { return enc.WriteUint8(uint8(len(m.AccountKeys))) },
	); err != nil {
		return nil, err
	}
	for _, key := range m.AccountKeys {
		if err := enc.WriteBytes(key.Bytes(), false); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteUint8(uint8(len(m.instructions))); err != nil {
		return nil, err
	}
	for _, ix := range m.instructions {
		if err := writeAll(
			func() error { return enc.WriteUint8(ix.programIDIndex) },
			func() error { return enc.WriteUint8(uint8(len(ix.accountIndexes))) },
			func() error { return enc.WriteBytes(ix.accountIndexes, false) },
			func() error { return enc.WriteUint16(uint16(len(ix.data)), bin.LE) },
			func() error { return enc.WriteBytes(ix.data, false) },
		); err != nil {
			return nil, err
		}
	}

	// no address lookup tables
	if err := enc.WriteUint8(0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAll(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return errors.Wrap(err, "encode transaction message")
		}
	}
	return nil
}
