package shell

import (
	"log/slog"

	"github.com/soocke/marker-pacer-go/app"
	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/ui/model"
	"github.com/soocke/marker-pacer-go/ui/presenter"
	"github.com/soocke/marker-pacer-go/ui/view"
)

// AppContainer assembles the engine, models, presenters and the root view.
type AppContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *app.Engine
	Hooks    *model.HooksModel
	Activity *model.ActivityModel
	Diag     *model.DiagnosticsModel
	RootView *view.RootView
	UI       view.UI

	// Presenters
	HooksPresenter       *presenter.HooksPresenter
	ActivityPresenter    *presenter.ActivityPresenter
	StatePresenter       *presenter.StatePresenter
	DiagnosticsPresenter *presenter.DiagnosticsPresenter
	Loop                 *presenter.Loop
}

// BuildContainer constructs all components. Nothing is installed and no
// widget is created until the app starts.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath string, opts app.EngineOptions, onApply func(*config.Config)) *AppContainer {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Engine = app.NewEngine(cfg, opts, logger)
	c.Hooks = &model.HooksModel{}
	c.Activity = model.NewActivityModel()
	c.Diag = model.NewDiagnosticsModel()
	// View
	c.RootView = view.NewRootView(cfg, cfgPath, logger, onApply)
	c.UI = c.RootView
	// Presenters
	c.HooksPresenter = presenter.NewHooksPresenter(c.Hooks, c.Engine, c.UI, logger)
	c.ActivityPresenter = presenter.NewActivityPresenter(c.Activity, c.Engine, c.UI)
	c.StatePresenter = presenter.NewStatePresenter(c.Engine.Trigger, c.UI)
	c.DiagnosticsPresenter = presenter.NewDiagnosticsPresenter(func() model.Diagnostics {
		return c.Engine.Snapshot().Diagnostics()
	}, c.Diag, c.UI, logger)
	return c
}
