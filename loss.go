// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// LossTracker implements the context-loss lifecycle shared by both
// backends: a lost flag plus observer lists for the lost and restored
// transitions. Backends embed it and call MarkLost/MarkRestored from their
// native loss events.
//
// Loss is a state transition, not an error: operations against a lost
// context fail predictably with ErrContextLost, and callers observe the
// transitions to stop issuing commands and to recreate their resources
// after restore.
type LossTracker struct {
	lost       bool
	lostReason string
	onLost     []func(reason string)
	onRestored []func()
}

// IsLost reports whether the device is currently lost.
func (t *LossTracker) IsLost() bool { return t.lost }

// LostReason returns the reason recorded with the most recent loss.
func (t *LossTracker) LostReason() string { return t.lostReason }

// OnLost registers an observer for the lost transition.
func (t *LossTracker) OnLost(fn func(reason string)) {
	if fn != nil {
		t.onLost = append(t.onLost, fn)
	}
}

// OnRestored registers an observer for the restored transition.
func (t *LossTracker) OnRestored(fn func()) {
	if fn != nil {
		t.onRestored = append(t.onRestored, fn)
	}
}

// MarkLost transitions to the lost state and notifies observers.
// Repeated calls while already lost are no-ops.
func (t *LossTracker) MarkLost(reason string) {
	if t.lost {
		return
	}
	t.lost = true
	t.lostReason = reason
	Logger().Info("gpu: context lost", "reason", reason)
	for _, fn := range t.onLost {
		fn(reason)
	}
}

// MarkRestored clears the lost state and notifies observers.
func (t *LossTracker) MarkRestored() {
	if !t.lost {
		return
	}
	t.lost = false
	t.lostReason = ""
	Logger().Info("gpu: context restored")
	for _, fn := range t.onRestored {
		fn()
	}
}
