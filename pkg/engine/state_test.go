package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/planner"
)

func TestAdvance(t *testing.T) {
	failure := errors.New("boom")

	tests := []struct {
		name   string
		state  State
		action planner.Action
		verify bool
		err    error
		want   State
		wantOp executor.Op
	}{
		{"skip finishes at once", StatePlanned, planner.ActionSkip, true, nil, StateDone, ""},
		{"new file copies", StatePlanned, planner.ActionCopyNew, true, nil, StateCopying, executor.OpCopy},
		{"replace deletes first", StatePlanned, planner.ActionReplace, true, nil, StateDeleting, executor.OpDelete},
		{"planning failure", StatePlanned, "", true, failure, StateFailed, ""},
		{"delete then copy", StateDeleting, planner.ActionReplace, true, nil, StateCopying, executor.OpCopy},
		{"failed delete never copies", StateDeleting, planner.ActionReplace, true, failure, StateFailed, ""},
		{"copy then verify", StateCopying, planner.ActionCopyNew, true, nil, StateVerifying, executor.OpRead},
		{"copy without verification", StateCopying, planner.ActionCopyNew, false, nil, StateDone, ""},
		{"failed copy", StateCopying, planner.ActionReplace, true, failure, StateFailed, ""},
		{"verified", StateVerifying, planner.ActionCopyNew, true, nil, StateDone, ""},
		{"verification failure", StateVerifying, planner.ActionCopyNew, true, failure, StateFailed, ""},
		{"done stays done", StateDone, planner.ActionCopyNew, true, nil, StateDone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, op := advance(tt.state, tt.action, tt.verify, tt.err)
			assert.Equal(t, tt.want, got, "got %s", got)
			assert.Equal(t, tt.wantOp, op)
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePlanned.Terminal())
	assert.False(t, StateVerifying.Terminal())
	assert.Equal(t, "deleting", StateDeleting.String())
}
