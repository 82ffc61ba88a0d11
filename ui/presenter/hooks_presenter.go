package presenter

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

// HooksModel provides enabled state access.
type HooksModel interface {
	Enabled() bool
	SetEnabled(bool)
}

// HookEngine narrows what the presenter needs from the engine.
type HookEngine interface {
	InstallAll() map[marker.ChannelID]error
	UninstallAll()
	AnyInstalled() bool
}

// HooksView updates UI elements affected by hook toggling.
type HooksView interface {
	SetStatus(text string)
	ConfigEditable(bool)
}

// HooksPresenter owns presentation logic for installing and removing hooks.
type HooksPresenter struct {
	model  HooksModel
	engine HookEngine
	view   HooksView
	logger *slog.Logger
}

func NewHooksPresenter(model HooksModel, engine HookEngine, view HooksView, logger *slog.Logger) *HooksPresenter {
	return &HooksPresenter{model: model, engine: engine, view: view, logger: logger}
}

// Enable installs every enabled channel. Channels that fail stay inactive
// and are listed in the status line. Idempotent.
func (p *HooksPresenter) Enable() {
	if p == nil || p.model == nil || p.engine == nil || p.view == nil {
		return
	}
	if p.model.Enabled() {
		return
	}
	errs := p.engine.InstallAll()
	p.model.SetEnabled(true)
	p.view.ConfigEditable(false)
	p.view.SetStatus(installStatus(errs, p.engine.AnyInstalled()))
}

// Disable removes every hook. Idempotent.
func (p *HooksPresenter) Disable() {
	if p == nil || p.model == nil || p.engine == nil || p.view == nil {
		return
	}
	if !p.model.Enabled() {
		return
	}
	p.engine.UninstallAll()
	p.model.SetEnabled(false)
	p.view.ConfigEditable(true)
	p.view.SetStatus("Hooks: off")
}

// Toggle flips enabled state delegating to Enable/Disable.
func (p *HooksPresenter) Toggle() {
	if p == nil || p.model == nil {
		return
	}
	if p.model.Enabled() {
		p.Disable()
		return
	}
	p.Enable()
}

func installStatus(errs map[marker.ChannelID]error, any bool) string {
	if !any {
		return "Hooks: no channel active"
	}
	if len(errs) == 0 {
		return "Hooks: on"
	}
	names := make([]string, 0, len(errs))
	for id := range errs {
		names = append(names, id.String())
	}
	sort.Strings(names)
	return "Hooks: on (inactive: " + strings.Join(names, ", ") + ")"
}
