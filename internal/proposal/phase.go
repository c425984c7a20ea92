package proposal

import (
	"context"

	"github.com/looplab/fsm"
)

// Phases of a registered proposal. creation_failed never reaches the registry, the
// executor reports it as an error instead.
const (
	PhasePendingCreation     = "pending_creation"
	PhaseAwaitingExecution   = "awaiting_execution"
	PhaseExecuted            = "executed"
	PhaseCallbackRunning     = "callback_running"
	PhaseDone                = "done"
	PhaseObservationTimedOut = "observation_timed_out"
	PhaseAbandoned           = "abandoned"
)

const (
	eventObserve     = "observe"
	eventExecute     = "execute"
	eventRunCallback = "run_callback"
	eventFinish      = "finish"
	eventTimeOut     = "time_out"
	eventAbandon     = "abandon"
)

func newPhase() *fsm.FSM {
	open := []string{PhasePendingCreation, PhaseAwaitingExecution}
	return fsm.NewFSM(
		PhasePendingCreation,
		fsm.Events{
			{Name: eventObserve, Src: []string{PhasePendingCreation}, Dst: PhaseAwaitingExecution},
			{Name: eventExecute, Src: open, Dst: PhaseExecuted},
			{Name: eventRunCallback, Src: []string{PhaseExecuted}, Dst: PhaseCallbackRunning},
			{Name: eventFinish, Src: []string{PhaseCallbackRunning}, Dst: PhaseDone},
			{Name: eventTimeOut, Src: open, Dst: PhaseObservationTimedOut},
			{Name: eventAbandon, Src: open, Dst: PhaseAbandoned},
		},
		fsm.Callbacks{},
	)
}

// advance fires event when the current phase allows it, otherwise it is a no-op.
func advance(phase *fsm.FSM, event string) {
	if !phase.Can(event) {
		return
	}
	_ = phase.Event(context.Background(), event)
}
