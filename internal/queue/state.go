package queue

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/simsaas/simsaas/pkg/log"
)

// State is the queue-native state of an entry. The wire values are
// fixed and distinct from the job status enum.
type State string

const (
	StateCompleted       State = "completed"
	StateWaiting         State = "waiting"
	StateActive          State = "active"
	StateDelayed         State = "delayed"
	StateFailed          State = "failed"
	StatePaused          State = "paused"
	StateWaitingChildren State = "waiting-children"
	StatePrioritized     State = "prioritized"
)

// AllStates lists every known state in display order.
var AllStates = []State{
	StateActive,
	StateWaiting,
	StateDelayed,
	StatePrioritized,
	StatePaused,
	StateWaitingChildren,
	StateCompleted,
	StateFailed,
}

// ParseState validates a wire state string.
func ParseState(s string) (State, error) {
	for _, state := range AllStates {
		if string(state) == s {
			return state, nil
		}
	}
	return "", fmt.Errorf("unknown queue state %q", s)
}

// stateOf maps an asynq task state onto the wire enum. Pending tasks
// report paused while the queue is paused. The second return is false
// for task states this package does not know about.
func stateOf(ts asynq.TaskState, paused bool) (State, bool) {
	switch ts {
	case asynq.TaskStateActive:
		return StateActive, true
	case asynq.TaskStatePending:
		if paused {
			return StatePaused, true
		}
		return StateWaiting, true
	case asynq.TaskStateScheduled, asynq.TaskStateRetry:
		return StateDelayed, true
	case asynq.TaskStateArchived:
		return StateFailed, true
	case asynq.TaskStateCompleted:
		return StateCompleted, true
	case asynq.TaskStateAggregating:
		return StateWaitingChildren, true
	default:
		log.Warn("unrecognized queue task state", "state", int(ts))
		return "", false
	}
}
