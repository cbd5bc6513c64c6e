package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalProgressWindows(t *testing.T) {
	cases := []struct {
		state UploadState
		want  float64
	}{
		{IdleState(), 0},
		{StageState(StageUploadingOriginal, 0), 0},
		{StageState(StageUploadingOriginal, 1), 0.25},
		{StageState(StageRemovingBackground, 0.5), 0.375},
		{StageState(StageAnalyzingClothing, 0), 0.5},
		{StageState(StageSavingToDatabase, 0), 0.75},
		{StageState(StageSavingToDatabase, 2), 1},
		{CompletedState(), 1},
		{FailedState("boom"), 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, c.state.GlobalProgress(), 1e-9, "stage %s", c.state.Stage)
	}
}

func TestUploadStateFlags(t *testing.T) {
	assert.True(t, StageState(StageRemovingBackground, 0).IsLoading())
	assert.False(t, IdleState().IsLoading())
	assert.True(t, CompletedState().IsTerminal())
	assert.True(t, FailedState("x").IsTerminal())
	assert.Equal(t, "x", FailedState("x").Reason)
}
