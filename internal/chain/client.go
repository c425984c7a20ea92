// Package chain adapts a Solana JSON-RPC node to the ledger views and submits
// transactions signed by the session key.
package chain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const (
	DefaultConfirmInterval = 2 * time.Second
	DefaultConfirmTimeout  = 120 * time.Second
	DefaultTxCacheSize     = 1024
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrTransaction     = errors.New("transaction failed on-chain")
	ErrNotConfirmed    = errors.New("transaction not confirmed in time, it may still land")
	ErrNoSigner        = errors.New("no session key loaded")
)

type Config struct {
	Endpoint          string
	Commitment        rpc.CommitmentType
	RequestsPerSecond float64
	Burst             int
	TxCacheSize       int
	ConfirmInterval   time.Duration
	ConfirmTimeout    time.Duration
	SkipPreflight     bool
	Retry             retrypolicy.Policy
	Logger            logrus.FieldLogger
}

// ConfigFromRepo maps the chain section of the repo config.
func ConfigFromRepo(c repo.Chain, logger logrus.FieldLogger) Config {
	return Config{
		Endpoint:          c.RPCEndpoint,
		Commitment:        rpc.CommitmentType(c.Commitment),
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		TxCacheSize:       c.TxCacheSize,
		ConfirmInterval:   c.ConfirmInterval.ToDuration(),
		ConfirmTimeout:    c.ConfirmTimeout.ToDuration(),
		SkipPreflight:     c.SkipPreflight,
		Retry:             retrypolicy.FromConfig(c.Retry),
		Logger:            logger,
	}
}

func (c *Config) sanitize() {
	switch c.Commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		c.Commitment = rpc.CommitmentConfirmed
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.TxCacheSize <= 0 {
		c.TxCacheSize = DefaultTxCacheSize
	}
	if c.ConfirmInterval <= 0 {
		c.ConfirmInterval = DefaultConfirmInterval
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.Retry.Limit == 0 {
		c.Retry = retrypolicy.NoRetry()
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
}

type Client struct {
	cfg     Config
	rpc     *rpc.Client
	limiter *rate.Limiter
	txCache *lru.Cache[string, *ledger.TransactionRecord]
	payer   *solana.PrivateKey
	logger  logrus.FieldLogger
}

var _ ledger.Reader = (*Client)(nil)

// New builds a client. payer may be nil for read-only use.
func New(cfg Config, payer *solana.PrivateKey) (*Client, error) {
	cfg.sanitize()
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc endpoint is empty")
	}
	cache, err := lru.New[string, *ledger.TransactionRecord](cfg.TxCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create transaction cache")
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		cfg:     cfg,
		rpc:     rpc.New(cfg.Endpoint),
		limiter: rate.NewLimiter(limit, cfg.Burst),
		txCache: cache,
		payer:   payer,
		logger:  cfg.Logger,
	}, nil
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string) (*solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load keypair %s", path)
	}
	return &key, nil
}

// SignMessage signs an off-chain message with the session key.
func (c *Client) SignMessage(msg []byte) (solana.Signature, error) {
	if c.payer == nil {
		return solana.Signature{}, ErrNoSigner
	}
	return c.payer.Sign(msg)
}

// Wallet is the public key of the session key.
func (c *Client) Wallet() (solana.PublicKey, error) {
	if c.payer == nil {
		return solana.PublicKey{}, ErrNoSigner
	}
	return c.payer.PublicKey(), nil
}

// call waits for the rate limiter and runs fn once. Reads are retried by their callers
// (history scanner, proposal watcher) under their own policies.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	err := fn()
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		c.logger.WithFields(logrus.Fields{"method": method, "err": err}).Debug("Rpc call failed")
	}
	return err
}

// callRetry is call under the client retry policy, for steps no caller retries.
func (c *Client) callRetry(ctx context.Context, method string, fn func() error) error {
	return c.cfg.Retry.Do(ctx, func(attempt uint) error {
		err := c.call(ctx, method, fn)
		if errors.Is(err, rpc.ErrNotFound) || (err != nil && ctx.Err() != nil) {
			return retrypolicy.Permanent(err)
		}
		return err
	})
}

func (c *Client) ListRecentSignatures(ctx context.Context, address string, limit int) ([]ledger.SignatureInfo, error) {
	account, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %s", address)
	}

	var out []*rpc.TransactionSignature
	err = c.call(ctx, "getSignaturesForAddress", func() error {
		var err error
		out, err = c.rpc.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: c.readCommitment(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSignatureInfos(out), nil
}

func (c *Client) GetTransaction(ctx context.Context, signature string) (*ledger.TransactionRecord, error) {
	if rec, ok := c.txCache.Get(signature); ok {
		return rec, nil
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid signature %s", signature)
	}

	maxVersion := uint64(0)
	var res *rpc.GetParsedTransactionResult
	err = c.call(ctx, "getTransaction", func() error {
		var err error
		res, err = c.rpc.GetParsedTransaction(ctx, sig, &rpc.GetParsedTransactionOpts{
			Commitment:                     c.readCommitment(),
			MaxSupportedTransactionVersion: &maxVersion,
		})
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := toRecord(signature, res)
	if rec != nil {
		c.txCache.Add(signature, rec)
	}
	return rec, nil
}

// AccountData returns the raw data of an account, ErrAccountNotFound when it does not exist.
func (c *Client) AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	var res *rpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func() error {
		var err error
		res, err = c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
			Commitment: c.cfg.Commitment,
		})
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, errors.Wrapf(ErrAccountNotFound, "%s", account)
	}
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return nil, errors.Wrapf(ErrAccountNotFound, "%s", account)
	}
	return res.Value.Data.GetBinary(), nil
}

// SendAndConfirm signs instructions with the session key plus signers, submits the
// transaction and polls its status until it is confirmed or the confirm timeout elapses.
func (c *Client) SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (string, error) {
	if c.payer == nil {
		return "", ErrNoSigner
	}

	var blockhash *rpc.GetLatestBlockhashResult
	err := c.callRetry(ctx, "getLatestBlockhash", func() error {
		var err error
		blockhash, err = c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "get latest blockhash")
	}

	tx, err := solana.NewTransaction(instructions, blockhash.Value.Blockhash, solana.TransactionPayer(c.payer.PublicKey()))
	if err != nil {
		return "", errors.Wrap(err, "build transaction")
	}

	keys := make(map[solana.PublicKey]solana.PrivateKey, len(signers)+1)
	keys[c.payer.PublicKey()] = *c.payer
	for _, s := range signers {
		keys[s.PublicKey()] = s
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if k, ok := keys[key]; ok {
			return &k
		}
		return nil
	}); err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}

	// a resend could land twice, so submission is attempted once
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       c.cfg.SkipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", errors.Wrap(err, "send transaction")
	}
	c.logger.WithFields(logrus.Fields{"signature": sig.String()}).Info("Transaction sent")

	if err := c.WaitConfirmed(ctx, sig); err != nil {
		return sig.String(), err
	}
	return sig.String(), nil
}

// WaitConfirmed polls getSignatureStatuses every confirm interval. An on-chain error
// or the confirm timeout rejects.
func (c *Client) WaitConfirmed(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()
	ticker := time.NewTicker(c.cfg.ConfirmInterval)
	defer ticker.Stop()

	for {
		var res *rpc.GetSignatureStatusesResult
		err := c.call(ctx, "getSignatureStatuses", func() error {
			var err error
			res, err = c.rpc.GetSignatureStatuses(ctx, false, sig)
			return err
		})
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return errors.Wrapf(ErrTransaction, "%s: %v", sig, status.Err)
			}
			if reached(status.ConfirmationStatus, c.cfg.Commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ErrNotConfirmed, "%s within %s", sig, c.cfg.ConfirmTimeout)
		case <-ticker.C:
		}
	}
}

// readCommitment is the commitment used for history reads, processed is not accepted there.
func (c *Client) readCommitment() rpc.CommitmentType {
	if c.cfg.Commitment == rpc.CommitmentProcessed {
		return rpc.CommitmentConfirmed
	}
	return c.cfg.Commitment
}

// reached reports whether status satisfies the wanted commitment. Anything weaker than
// finalized only needs confirmed.
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	if want == rpc.CommitmentFinalized {
		return status == rpc.ConfirmationStatusFinalized
	}
	return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
}
