package app

import (
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/pkg/events"
)

func (cs *CoordinatorSettle) start() {
	if cs.Watcher != nil {
		go cs.listenProposalEvents()
	}
}

// listenProposalEvents reports how tracked proposals settled.
func (cs *CoordinatorSettle) listenProposalEvents() {
	ch := make(chan events.ProposalEvent, 16)
	sub := cs.Watcher.SubscribeEvent(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-cs.Ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				cs.logger.WithField("err", err).Warn("Proposal event subscription closed")
			}
			return
		case ev := <-ch:
			entry := cs.logger.WithFields(logrus.Fields{
				"proposal": ev.ProposalID,
				"memo":     ev.Memo,
				"kind":     ev.Kind,
				"subject":  ev.Subject,
				"outcome":  ev.Outcome.String(),
			})
			switch ev.Outcome {
			case events.ProposalExecuted:
				entry.Info("Proposal executed")
			case events.ProposalCallbackFailed:
				entry.WithField("err", ev.Err).Error("Proposal executed but its follow-up failed")
			case events.ProposalTimedOut:
				entry.Warn("Proposal execution not observed in time, check it manually")
			case events.ProposalAbandoned:
				entry.Warn("Proposal was rejected or cancelled")
			default:
				entry.Info("Proposal registration replaced")
			}
		}
	}
}
