package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestStatusModelStartsAtOne(t *testing.T) {
	assert.Equal(t, 1, NewStatusModel().Current())
}

func TestApplyFirstTurn(t *testing.T) {
	tests := []struct {
		name     string
		proposed *int
		score    int
		want     int
	}{
		{"ordinary score pins to one", intp(3), 6, 1},
		{"score eight still pins", intp(4), 8, 1},
		{"exceptional score allows two", intp(3), 9, 2},
		{"exceptional score keeps proposal below cap", intp(1), 9, 1},
		{"exceptional score without proposal", nil, 10, 2},
		{"no proposal ordinary score", nil, 5, 1},
		{"proposal of five cannot jump", intp(5), 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStatusModel()
			got := m.Apply(tt.proposed, true, tt.score)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestApplyStepClamp(t *testing.T) {
	// Every proposal moves the status at most one step and the result stays
	// on the 1-5 scale, whatever the proposal says.
	for current := 1; current <= 5; current++ {
		for proposed := -2; proposed <= 8; proposed++ {
			m := &StatusModel{current: current}
			got := m.Apply(intp(proposed), false, 5)
			assert.GreaterOrEqual(t, got, 1, "current=%d proposed=%d", current, proposed)
			assert.LessOrEqual(t, got, 5, "current=%d proposed=%d", current, proposed)
			diff := got - current
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, 1, "current=%d proposed=%d", current, proposed)
			assert.Equal(t, got, m.Current())
		}
	}
}

func TestApplyStepClampExactMoves(t *testing.T) {
	m := &StatusModel{current: 3}
	assert.Equal(t, 4, m.Apply(intp(5), false, 7), "upward moves are capped at one step")
	assert.Equal(t, 5, m.Apply(intp(5), false, 9), "a second turn completes the climb")
	assert.Equal(t, 4, m.Apply(intp(1), false, 2), "downward moves are capped too")
}

func TestApplyNilProposalKeepsStatus(t *testing.T) {
	m := &StatusModel{current: 3}
	assert.Equal(t, 3, m.Apply(nil, false, 9))
	assert.Equal(t, 3, m.Current())
}
