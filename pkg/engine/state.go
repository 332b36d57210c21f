package engine

import (
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/planner"
)

// State is the progress of one file through a run.
type State int

const (
	StatePlanned State = iota
	StateDeleting
	StateCopying
	StateVerifying
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanned:
		return "planned"
	case StateDeleting:
		return "deleting"
	case StateCopying:
		return "copying"
	case StateVerifying:
		return "verifying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further operation follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// advance returns the state that follows s once its operation finished with
// err, and the remote operation the new state performs. A delete always
// completes before the copy of the same name is started.
func advance(s State, action planner.Action, verify bool, err error) (State, executor.Op) {
	if err != nil {
		return StateFailed, ""
	}
	switch s {
	case StatePlanned:
		switch action {
		case planner.ActionCopyNew:
			return StateCopying, executor.OpCopy
		case planner.ActionReplace:
			return StateDeleting, executor.OpDelete
		default:
			return StateDone, ""
		}
	case StateDeleting:
		return StateCopying, executor.OpCopy
	case StateCopying:
		if verify {
			return StateVerifying, executor.OpRead
		}
		return StateDone, ""
	case StateVerifying:
		return StateDone, ""
	default:
		return s, ""
	}
}
