package multisig

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Member permission bits.
const (
	PermissionInitiate uint8 = 1 << iota
	PermissionVote
	PermissionExecute
)

type Member struct {
	Key         string `json:"key"`
	Permissions uint8  `json:"permissions"`
}

func (m Member) Can(permission uint8) bool {
	return m.Permissions&permission == permission
}

type multisigState struct {
	threshold        uint16
	transactionIndex uint64
	members          []Member
}

type proposalState struct {
	transactionIndex uint64
	status           uint8
	approved         []solana.PublicKey
	rejected         []solana.PublicKey
	cancelled        []solana.PublicKey
}

// vaultTransactionState keeps what execution needs from a stored vault transaction.
type vaultTransactionState struct {
	numSigners            uint8
	numWritableSigners    uint8
	numWritableNonSigners uint8
	accountKeys           []solana.PublicKey
}

// accountReader decodes borsh account data and keeps the first error.
type accountReader struct {
	dec *bin.Decoder
	err error
}

func newAccountReader(data []byte) *accountReader {
	return &accountReader{dec: bin.NewBorshDecoder(data)}
}

func (r *accountReader) skip(n int) {
	if r.err == nil {
		r.err = r.dec.SkipBytes(uint(n))
	}
}

func (r *accountReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	var v uint8
	v, r.err = r.dec.ReadUint8()
	return v
}

func (r *accountReader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	var v uint16
	v, r.err = r.dec.ReadUint16(bin.LE)
	return v
}

func (r *accountReader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.err = r.dec.ReadUint64(bin.LE)
	return v
}

func (r *accountReader) length() int {
	if r.err != nil {
		return 0
	}
	var n int
	n, r.err = r.dec.ReadLength()
	if r.err == nil && n > r.dec.Remaining() {
		r.err = errors.Errorf("length %d exceeds remaining %d bytes", n, r.dec.Remaining())
	}
	return n
}

func (r *accountReader) key() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	var raw []byte
	raw, r.err = r.dec.ReadNBytes(solana.PublicKeyLength)
	if r.err != nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(raw)
}

func (r *accountReader) keys() []solana.PublicKey {
	n := r.length()
	out := make([]solana.PublicKey, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.key())
	}
	return out
}

func (r *accountReader) done(what string) error {
	if r.err != nil {
		return errors.Wrapf(ErrMalformedAccount, "%s: %v", what, r.err)
	}
	return nil
}

func decodeMultisig(data []byte) (*multisigState, error) {
	r := newAccountReader(data)
	// discriminator, create_key, config_authority
	r.skip(8 + 32 + 32)
	s := &multisigState{threshold: r.u16()}
	// time_lock
	r.skip(4)
	s.transactionIndex = r.u64()
	// stale_transaction_index
	r.skip(8)
	if r.u8() != 0 {
		// rent_collector
		r.skip(32)
	}
	// bump
	r.skip(1)
	n := r.length()
	s.members = make([]Member, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		key := r.key()
		s.members = append(s.members, Member{Key: key.String(), Permissions: r.u8()})
	}
	if err := r.done("multisig account"); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeProposal(data []byte) (*proposalState, error) {
	r := newAccountReader(data)
	// discriminator, multisig
	r.skip(8 + 32)
	s := &proposalState{transactionIndex: r.u64(), status: r.u8()}
	if r.err == nil && s.status > statusCancelled {
		return nil, errors.Wrapf(ErrMalformedAccount, "unknown proposal status %d", s.status)
	}
	if s.status != statusExecuting {
		// status timestamp
		r.skip(8)
	}
	// bump
	r.skip(1)
	s.approved = r.keys()
	s.rejected = r.keys()
	s.cancelled = r.keys()
	if err := r.done("proposal account"); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeVaultTransaction reads the stored message of a vault transaction. Messages using
// address lookup tables are refused.
func decodeVaultTransaction(data []byte) (*vaultTransactionState, error) {
	r := newAccountReader(data)
	// discriminator, multisig, creator, index, bump, vault_index
	r.skip(8 + 32 + 32 + 8 + 1 + 1)
	// ephemeral_signer_bumps
	r.skip(r.length())
	s := &vaultTransactionState{
		numSigners:            r.u8(),
		numWritableSigners:    r.u8(),
		numWritableNonSigners: r.u8(),
	}
	s.accountKeys = r.keys()
	instructions := r.length()
	for i := 0; i < instructions && r.err == nil; i++ {
		// program_id_index, account_indexes, data
		r.skip(1)
		r.skip(r.length())
		r.skip(r.length())
	}
	lookups := r.length()
	if err := r.done("vault transaction account"); err != nil {
		return nil, err
	}
	if lookups > 0 {
		return nil, errors.Wrapf(ErrMalformedAccount, "vault transaction uses %d address lookup tables", lookups)
	}
	if int(s.numSigners) > len(s.accountKeys) {
		return nil, errors.Wrapf(ErrMalformedAccount, "%d signers for %d keys", s.numSigners, len(s.accountKeys))
	}
	return s, nil
}

// writable mirrors the message rule: writable signers first, then writable non-signers
// right after the signers.
func (s *vaultTransactionState) writable(index int) bool {
	if index < int(s.numSigners) {
		return index < int(s.numWritableSigners)
	}
	return index-int(s.numSigners) < int(s.numWritableNonSigners)
}

// remainingAccounts lists the message keys for vault_transaction_execute. None of them
// sign the outer transaction, the program signs for the vault.
func (s *vaultTransactionState) remainingAccounts() solana.AccountMetaSlice {
	return lo.Map(s.accountKeys, func(key solana.PublicKey, i int) *solana.AccountMeta {
		return solana.NewAccountMeta(key, s.writable(i), false)
	})
}

func keyStrings(keys []solana.PublicKey) []string {
	return lo.Map(keys, func(k solana.PublicKey, _ int) string { return k.String() })
}
