package presenter

import (
	"time"

	"github.com/soocke/marker-pacer-go/ui/model"
)

// ActiveSource reports whether any hook is installed.
type ActiveSource interface{ AnyInstalled() bool }

// ActivityView displays formatted run and total durations.
type ActivityView interface {
	SetActivity(run, total time.Duration)
}

// ActivityPresenter formats hook activity durations from the model to the
// view.
type ActivityPresenter struct {
	act  *model.ActivityModel
	src  ActiveSource
	view ActivityView
}

func NewActivityPresenter(act *model.ActivityModel, src ActiveSource, view ActivityView) *ActivityPresenter {
	return &ActivityPresenter{act: act, src: src, view: view}
}

// Tick advances the activity model and pushes values to the view.
func (p *ActivityPresenter) Tick(now time.Time) {
	if p == nil || p.act == nil || p.src == nil || p.view == nil {
		return
	}
	p.act.OnTick(p.src.AnyInstalled(), now)
	run, total := p.act.Values()
	p.view.SetActivity(run, total)
}
