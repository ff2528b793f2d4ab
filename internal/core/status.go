package core

// StatusModel owns the persona's attitude on the 1-5 scale.  It is the only
// component allowed to mutate the value; all updates go through Apply, which
// enforces the step-clamp and first-turn rules.
type StatusModel struct {
	current int
}

// NewStatusModel returns a model at the initial attitude of 1 (very
// critical, closed off).
func NewStatusModel() *StatusModel {
	return &StatusModel{current: 1}
}

// Current returns the present attitude status.
func (m *StatusModel) Current() int {
	return m.current
}

// Apply folds one evaluation into the attitude and returns the new status.
//
// On the first trainee turn the status is pinned to 1 unless the evaluation
// score exceeds 8, in which case it may rise to at most 2.  On later turns
// the proposed status moves the attitude at most one step per turn within
// [1,5]; a missing proposal leaves the attitude unchanged.
func (m *StatusModel) Apply(proposed *int, firstTurn bool, firstTurnScore int) int {
	if firstTurn {
		next := 1
		if firstTurnScore > 8 {
			next = 2
			if proposed != nil && *proposed < next {
				next = *proposed
			}
			if next < 1 {
				next = 1
			}
		}
		m.current = next
		return next
	}
	if proposed == nil {
		return m.current
	}
	next := clamp(*proposed, m.current-1, m.current+1)
	m.current = clamp(next, 1, 5)
	return m.current
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
