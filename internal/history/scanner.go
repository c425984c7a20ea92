// Package history reconstructs protocol state from the recent transaction history of an
// address by looking for the newest memo payload a schema accepts.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/internal/memo"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const DefaultWindowSize = 50

// ErrNetwork is returned when the ledger could not be queried within the retry policy.
var ErrNetwork = errors.New("history scan: ledger unreachable")

type Config struct {
	WindowSize    int
	Marker        string
	MemoProgramID string
	Retry         retrypolicy.Policy
	Logger        logrus.FieldLogger
}

func (c *Config) sanitize() {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.Marker == "" {
		c.Marker = memo.LogMarker
	}
	if c.MemoProgramID == "" {
		c.MemoProgramID = repo.MemoProgramID
	}
	if c.Retry.Limit == 0 {
		c.Retry = retrypolicy.NoRetry()
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
}

// Match is the newest accepted memo found in the window.
type Match struct {
	Payload   memo.Payload `json:"payload"`
	Signature string       `json:"signature"`
	BlockTime *time.Time   `json:"block_time,omitempty"`
}

// Outcome of one scan. Truncated reports that the window was full, so older history
// exists that was not examined.
type Outcome struct {
	Match     *Match
	Examined  int
	Truncated bool
}

type Scanner struct {
	cfg    Config
	reader ledger.Reader
	schema memo.Schema
	logger logrus.FieldLogger
}

func New(cfg Config, reader ledger.Reader, schema memo.Schema) *Scanner {
	cfg.sanitize()
	return &Scanner{
		cfg:    cfg,
		reader: reader,
		schema: schema,
		logger: cfg.Logger,
	}
}

// Scan walks the recent history of address newest first and stops at the first
// transaction carrying a payload accepted by the schema. Transactions are fetched one
// at a time so a hit near the head costs a single fetch.
func (s *Scanner) Scan(ctx context.Context, address string) (outcome *Outcome, err error) {
	start := time.Now()
	defer func() {
		switch {
		case err != nil:
			traceScan("error", time.Since(start))
		case outcome.Match != nil:
			traceScan("match", time.Since(start))
		default:
			traceScan("absent", time.Since(start))
		}
	}()

	var sigs []ledger.SignatureInfo
	if err := s.cfg.Retry.Do(ctx, func(attempt uint) error {
		var err error
		sigs, err = s.reader.ListRecentSignatures(ctx, address, s.cfg.WindowSize)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"address": address, "attempt": attempt, "err": err}).Debug("List signatures failed")
		}
		return err
	}); err != nil {
		return nil, errors.Wrapf(ErrNetwork, "list signatures of %s: %v", address, err)
	}

	outcome = &Outcome{Truncated: len(sigs) >= s.cfg.WindowSize}
	candidates := lo.Filter(sigs, func(sig ledger.SignatureInfo, _ int) bool {
		return !sig.Failed
	})

	for _, sig := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var record *ledger.TransactionRecord
		if err := s.cfg.Retry.Do(ctx, func(attempt uint) error {
			var err error
			record, err = s.reader.GetTransaction(ctx, sig.Signature)
			return err
		}); err != nil {
			return nil, errors.Wrapf(ErrNetwork, "get transaction %s: %v", sig.Signature, err)
		}
		transactionsFetched.Inc()
		outcome.Examined++

		if record == nil || !record.Succeeded {
			continue
		}
		if payload, ok := s.extract(record); ok {
			blockTime := record.BlockTime
			if blockTime == nil {
				blockTime = sig.BlockTime
			}
			outcome.Match = &Match{
				Payload:   payload,
				Signature: sig.Signature,
				BlockTime: blockTime,
			}
			s.logger.WithFields(logrus.Fields{
				"address":   address,
				"signature": sig.Signature,
				"examined":  outcome.Examined,
			}).Debug("Found memo payload")
			return outcome, nil
		}
	}

	s.logger.WithFields(logrus.Fields{
		"address":   address,
		"examined":  outcome.Examined,
		"truncated": outcome.Truncated,
	}).Debug("No memo payload in window")
	return outcome, nil
}

// extract looks at log lines first, then at memo instructions decoded by the node.
func (s *Scanner) extract(record *ledger.TransactionRecord) (memo.Payload, bool) {
	for _, line := range record.LogLines {
		if !strings.Contains(line, s.cfg.Marker) {
			continue
		}
		if payload, ok := s.schema.Decode(line); ok {
			return payload, true
		}
	}
	for _, ix := range record.InnerInstructions {
		if ix.ProgramID != s.cfg.MemoProgramID || ix.ParsedData == "" {
			continue
		}
		if payload, ok := s.schema.DecodeJSON(ix.ParsedData); ok {
			return payload, true
		}
	}
	return nil, false
}
