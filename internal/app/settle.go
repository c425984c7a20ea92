package app

import (
	"context"
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/internal/chain"
	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/enrollment"
	"github.com/crunchdao/coordinator-settle/internal/executor"
	"github.com/crunchdao/coordinator-settle/internal/history"
	"github.com/crunchdao/coordinator-settle/internal/hotkey"
	"github.com/crunchdao/coordinator-settle/internal/memo"
	"github.com/crunchdao/coordinator-settle/internal/multisig"
	"github.com/crunchdao/coordinator-settle/internal/proposal"
	"github.com/crunchdao/coordinator-settle/internal/storagemgr"
	"github.com/crunchdao/coordinator-settle/pkg/loggers"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

// MessageSigner signs off-chain attestations with the session key.
type MessageSigner interface {
	SignMessage(msg []byte) (solana.Signature, error)
}

type CoordinatorSettle struct {
	Ctx    context.Context
	Cancel context.CancelFunc
	Repo   *repo.Repo
	logger logrus.FieldLogger

	Chain      *chain.Client
	Multisig   *multisig.Client
	Scanner    *history.Scanner
	Hotkeys    enrollment.LiveValueSource
	Enrollment *enrollment.Tracker
	Executor   *executor.Executor
	Watcher    *proposal.Watcher

	signer MessageSigner
	schema memo.Schema
}

func PrepareCoordinatorSettle(rep *repo.Repo) error {
	if err := storagemgr.Initialize(rep.Config); err != nil {
		return errors.Wrap(err, "storagemgr initialize")
	}
	return nil
}

// NewCoordinatorSettle builds every component from the repo config. The session keypair
// is required, it pays for and signs every transaction.
func NewCoordinatorSettle(rep *repo.Repo, ctx context.Context, cancel context.CancelFunc) (*CoordinatorSettle, error) {
	if err := PrepareCoordinatorSettle(rep); err != nil {
		return nil, err
	}
	cfg := rep.Config

	payer, err := chain.LoadKeypair(rep.KeypairPath())
	if err != nil {
		return nil, err
	}
	chainClient, err := chain.New(chain.ConfigFromRepo(cfg.Chain, loggers.Logger(loggers.Chain)), payer)
	if err != nil {
		return nil, errors.Wrap(err, "create chain client")
	}
	wallet, err := chainClient.Wallet()
	if err != nil {
		return nil, err
	}

	var (
		ms        *multisig.Client
		mode      = executor.ModeDirect
		authority = wallet
		reader    proposal.StatusReader
		creator   executor.ProposalCreator
	)
	if cfg.MultisigMode() {
		msCfg, err := multisig.ConfigFromRepo(cfg.Multisig, wallet, loggers.Logger(loggers.Multisig))
		if err != nil {
			return nil, err
		}
		if ms, err = multisig.New(msCfg, chainClient); err != nil {
			return nil, errors.Wrap(err, "create multisig client")
		}
		mode = executor.ModeProposed
		authority = ms.Vault()
		reader = ms
		creator = ms
	}

	exec, err := executor.New(executor.Config{
		Mode:      mode,
		Authority: authority,
		Logger:    loggers.Logger(loggers.Executor),
	}, chainClient, creator)
	if err != nil {
		return nil, errors.Wrap(err, "create executor")
	}

	schema := memo.NewSchema(cfg.Enrollment.RequiredKeys...)
	scanner := history.New(history.Config{
		WindowSize: cfg.Scanner.WindowSize,
		Marker:     cfg.Scanner.Marker,
		Retry:      retrypolicy.FromConfig(cfg.Scanner.Retry),
		Logger:     loggers.Logger(loggers.History),
	}, chainClient, schema)
	hotkeys := hotkey.New(cfg.Hotkey.Endpoint, cfg.Hotkey.Timeout.ToDuration(), loggers.Logger(loggers.Enrollment))
	tracker, err := enrollment.NewTracker(enrollment.TrackerConfig{
		ComparisonKey: cfg.Enrollment.ComparisonKey,
		CacheSize:     cfg.Enrollment.CacheSize,
		Concurrency:   cfg.Scanner.Concurrency,
		Logger:        loggers.Logger(loggers.Enrollment),
	}, scanner, hotkeys)
	if err != nil {
		return nil, err
	}

	var watcher *proposal.Watcher
	if reader != nil {
		var store *proposal.Store
		if cfg.Watcher.Persist {
			db, err := storagemgr.Open(storagemgr.GetComponentPath(rep, storagemgr.Proposals))
			if err != nil {
				return nil, errors.Wrap(err, "open proposal store")
			}
			store = proposal.NewStore(db)
		}
		watcher = proposal.New(proposal.Config{
			PollInterval: cfg.Watcher.PollInterval.ToDuration(),
			MaxAttempts:  cfg.Watcher.MaxAttempts,
			Timeout:      cfg.Watcher.Timeout.ToDuration(),
			Retry:        retrypolicy.FromConfig(cfg.Watcher.Retry),
			Store:        store,
			Logger:       loggers.Logger(loggers.Proposal),
		}, reader)
	}

	cs := &CoordinatorSettle{
		Ctx:        ctx,
		Cancel:     cancel,
		Repo:       rep,
		logger:     loggers.Logger(loggers.App),
		Chain:      chainClient,
		Multisig:   ms,
		Scanner:    scanner,
		Hotkeys:    hotkeys,
		Enrollment: tracker,
		Executor:   exec,
		Watcher:    watcher,
		signer:     chainClient,
		schema:     schema,
	}
	cs.registerFactories()
	return cs, nil
}

func (cs *CoordinatorSettle) Start() error {
	if cs.Watcher != nil {
		if err := cs.Watcher.Start(); err != nil {
			return errors.Wrap(err, "proposal watcher start")
		}
	}
	cs.start()
	cs.printLogo()
	return nil
}

func (cs *CoordinatorSettle) Stop() error {
	if cs.Watcher != nil {
		cs.Watcher.Stop()
	}
	cs.Cancel()
	if cs.Watcher != nil && cs.Repo.Config.Watcher.Persist {
		if err := storagemgr.Close(storagemgr.GetComponentPath(cs.Repo, storagemgr.Proposals)); err != nil {
			return errors.Wrap(err, "close proposal store")
		}
	}

	cs.logger.Infof("%s stopped", repo.AppName)
	return nil
}

func (cs *CoordinatorSettle) printLogo() {
	cs.logger.WithFields(logrus.Fields{
		"mode":      cs.Executor.Mode(),
		"authority": cs.Executor.Authority().String(),
	}).Info("Settlement layer is ready")
	fig := figure.NewFigure(repo.AppName, "slant", true)
	cs.logger.Info(fmt.Sprintf(`
=========================================================================================
%s
=========================================================================================
`, fig.String()))
}
