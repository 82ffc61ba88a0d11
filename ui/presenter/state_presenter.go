package presenter

import (
	"time"

	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// StateSource provides the trigger methods the presenter requires.
type StateSource interface {
	State() pacing.State
	SimulationStartOnly() bool
}

// StateView sets the state label in the view.
type StateView interface{ SetStateLabel(string) }

// StatePresenter mirrors the pacing trigger state into the view. The label
// is only rewritten when the text changes.
type StatePresenter struct {
	src    StateSource
	view   StateView
	latest string
}

func NewStatePresenter(src StateSource, view StateView) *StatePresenter {
	return &StatePresenter{src: src, view: view}
}

func stateText(s pacing.State, simStart bool) string {
	mode := "present"
	if simStart {
		mode = "simulation-start"
	}
	return "State: " + s.String() + " (" + mode + ")"
}

// Tick reads the trigger and updates the view if the label changed.
func (p *StatePresenter) Tick(now time.Time) {
	if p == nil || p.src == nil || p.view == nil {
		return
	}
	text := stateText(p.src.State(), p.src.SimulationStartOnly())
	if text != p.latest {
		p.latest = text
		p.view.SetStateLabel(text)
	}
}
