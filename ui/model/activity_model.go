package model

import (
	"sync/atomic"
	"time"
)

// HooksModel tracks whether the user asked for hooks to be installed. The
// zero value is disabled and usable. UI callbacks and presenter ticks may
// race, hence the atomic.
type HooksModel struct{ enabled atomic.Bool }

// Enabled reports whether hooks are requested.
func (m *HooksModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the enabled flag.
func (m *HooksModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	m.enabled.Store(b)
}

// ActivityModel tracks how long hooks have been active in the current run
// and in total. Presenters poll Values and push them to the view.
// The zero value is ready to use.
type ActivityModel struct {
	active       bool
	start        time.Time
	lastDuration time.Duration
	accumulated  time.Duration
}

// NewActivityModel returns a ready-to-use ActivityModel.
func NewActivityModel() *ActivityModel { return &ActivityModel{} }

// OnTick advances the model with the current hook state.
func (m *ActivityModel) OnTick(active bool, now time.Time) {
	if m == nil {
		return
	}
	if active {
		if !m.active {
			m.active = true
			m.start = now
			m.lastDuration = 0
		}
		m.lastDuration = now.Sub(m.start)
	} else if m.active {
		m.lastDuration = now.Sub(m.start)
		m.accumulated += m.lastDuration
		m.active = false
	}
}

// Values returns the current run and the accumulated duration. The total
// includes the ongoing run.
func (m *ActivityModel) Values() (run, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	run = m.lastDuration
	total = m.accumulated
	if m.active {
		total += run
	}
	return
}
