package presenter

import "time"

// Ticker is a presenter driven by the loop.
type Ticker interface{ Tick(now time.Time) }

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Activity    *ActivityPresenter
	State       *StatePresenter
	Diagnostics *DiagnosticsPresenter
	Schedule    func()
}

func NewLoop(act *ActivityPresenter, state *StatePresenter, diag *DiagnosticsPresenter, schedule func()) *Loop {
	return &Loop{Activity: act, State: state, Diagnostics: diag, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.State != nil {
		l.State.Tick(now)
	}
	if l.Activity != nil {
		l.Activity.Tick(now)
	}
	if l.Diagnostics != nil {
		l.Diagnostics.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

var (
	_ Ticker = (*ActivityPresenter)(nil)
	_ Ticker = (*StatePresenter)(nil)
	_ Ticker = (*DiagnosticsPresenter)(nil)
)
