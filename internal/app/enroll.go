package app

import (
	"context"
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/executor"
	"github.com/crunchdao/coordinator-settle/internal/memo"
	"github.com/crunchdao/coordinator-settle/internal/proposal"
)

const (
	KindEnrollment = "enrollment"

	certPubKey = "cert_pub"
	hotkeyKey  = "hotkey"
)

var (
	ErrEmptyCertificate = errors.New("certificate public key is empty")
	ErrNoHotkey         = errors.New("no hotkey published for authority")
)

// SignedMessage attests the enrollment payload off-chain. In proposed mode the signature
// is empty, the executed memo transaction is the attestation.
type SignedMessage struct {
	MessageB64      string `json:"message_b64"`
	WalletPubkeyB58 string `json:"wallet_pubkey_b58"`
	SignatureB64    string `json:"signature_b64"`
}

type EnrollmentResult struct {
	Payload     memo.Payload    `json:"payload"`
	Execution   executor.Result `json:"execution"`
	Attestation SignedMessage   `json:"attestation"`
}

// EnrollCertificate publishes {cert_pub, hotkey} as a memo signed by the authority. The
// enrollment state of the authority is invalidated once the memo is known to be on-chain:
// right away in direct mode, after the proposal executed in proposed mode.
func (cs *CoordinatorSettle) EnrollCertificate(ctx context.Context, certPub string) (*EnrollmentResult, error) {
	if certPub == "" {
		return nil, ErrEmptyCertificate
	}
	authority := cs.Executor.Authority()

	hk, err := cs.Hotkeys.CurrentValue(ctx, authority.String())
	if err != nil {
		return nil, errors.Wrap(err, "fetch hotkey")
	}
	if hk == nil {
		return nil, errors.Wrapf(ErrNoHotkey, "%s", authority)
	}

	payload := memo.Payload{certPubKey: certPub, hotkeyKey: *hk}
	message := []byte(payload.JSON())
	ix := solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(authority, false, true),
	}, message)

	description := enrollMemo(*hk)
	res, err := cs.Executor.Execute(ctx, &executor.Request{
		Instructions: []solana.Instruction{ix},
		Memo:         description,
	})
	if err != nil {
		return nil, err
	}

	attestation := SignedMessage{
		MessageB64:      base64.StdEncoding.EncodeToString(message),
		WalletPubkeyB58: authority.String(),
	}
	switch r := res.(type) {
	case executor.DirectResult:
		sig, err := cs.signer.SignMessage(message)
		if err != nil {
			return nil, errors.Wrap(err, "sign enrollment attestation")
		}
		attestation.SignatureB64 = base64.StdEncoding.EncodeToString(sig[:])
		cs.Enrollment.Invalidate(authority.String())
	case executor.ProposedResult:
		subject := authority.String()
		onExecuted, invalidate := cs.enrollmentHooks(subject)
		if _, err := cs.Watcher.Register(r.ProposalID, onExecuted, description,
			proposal.WithKind(KindEnrollment, subject),
			proposal.WithInvalidate(invalidate),
		); err != nil {
			// the proposal exists, only its follow-up is lost
			cs.logger.WithFields(logrus.Fields{"proposal": r.ProposalID, "err": err}).Error("Watch enrollment proposal failed")
		}
	}

	cs.logger.WithFields(logrus.Fields{
		"authority": authority.String(),
		"mode":      res.Mode().String(),
		"memo":      description,
	}).Info("Certificate enrollment submitted")
	return &EnrollmentResult{
		Payload:     payload,
		Execution:   res,
		Attestation: attestation,
	}, nil
}

func enrollMemo(hotkey string) string {
	short := hotkey
	if len(short) > 8 {
		short = short[:8]
	}
	return "Certificate enrollment for hotkey: " + short + "..."
}

// enrollmentHooks drops the cached state of subject so the next status read rescans.
func (cs *CoordinatorSettle) enrollmentHooks(subject string) (proposal.Callback, func()) {
	invalidate := func() {
		cs.Enrollment.Invalidate(subject)
	}
	return func(ctx context.Context) error {
		invalidate()
		return nil
	}, invalidate
}

func (cs *CoordinatorSettle) registerFactories() {
	if cs.Watcher == nil {
		return
	}
	cs.Watcher.RegisterFactory(KindEnrollment, func(rec proposal.Record) (proposal.Callback, func(), error) {
		if rec.Subject == "" {
			return nil, nil, errors.New("enrollment proposal without subject")
		}
		onExecuted, invalidate := cs.enrollmentHooks(rec.Subject)
		return onExecuted, invalidate, nil
	})
}
