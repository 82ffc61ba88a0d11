package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	. "modernc.org/tk9.0"

	"github.com/soocke/marker-pacer-go/app"
	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/debug"
	"github.com/soocke/marker-pacer-go/ui/presenter"
	"github.com/soocke/marker-pacer-go/ui/theme"
)

const (
	tick = 200 * time.Millisecond
)

type shellApp struct {
	c       *AppContainer
	logger  *slog.Logger
	width   int
	height  int
	afterID string

	ctx          context.Context
	cancel       context.CancelFunc
	replayCancel context.CancelFunc
	replayFPS    int
}

// NewApp builds the diagnostics window around a fresh engine. opts supplies
// the interception fabric; zero options fall back to the in-memory fabric.
func NewApp(title string, width, height int, cfg *config.Config, cfgPath string, opts app.EngineOptions, logger *slog.Logger) *shellApp {
	a := &shellApp{logger: logger, width: width, height: height}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.c = BuildContainer(cfg, logger, cfgPath, opts, a.applyConfig)

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

func (a *shellApp) Start() {
	theme.InitStyles()
	a.c.RootView.Build(a.c.HooksPresenter.Toggle, a.resetCounters, a.exitHandler)
	a.c.Loop = presenter.NewLoop(a.c.ActivityPresenter, a.c.StatePresenter, a.c.DiagnosticsPresenter, a.scheduleUpdate)

	cfg := a.c.Config
	a.restartReplay(cfg.SyntheticFPS)
	if cfg.Debug {
		interval := time.Duration(cfg.DiagnosticsIntervalSeconds) * time.Second
		debug.StartCounterLogger(a.ctx, interval, func() []slog.Attr {
			return a.c.Engine.Snapshot().LogAttrs()
		}, a.logger)
	}

	// Hooks go in right away; the button removes and re-adds them.
	a.c.HooksPresenter.Enable()
	a.scheduleUpdate()

	App.Wait()
}

func (a *shellApp) update() {
	defer func() {
		if r := recover(); r != nil && a.logger != nil {
			a.logger.Error("ui update panic", "panic", r)
		}
	}()
	a.c.Loop.Tick()
}

func (a *shellApp) scheduleUpdate() {
	// TclAfter keeps the update on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}

func (a *shellApp) resetCounters() {
	a.c.Engine.ResetAll()
	if a.logger != nil {
		a.logger.Info("counters reset")
	}
}

// applyConfig runs on the UI thread after the config panel saved.
func (a *shellApp) applyConfig(cfg *config.Config) {
	a.c.Engine.ApplyConfig(cfg)
	a.restartReplay(cfg.SyntheticFPS)
}

func (a *shellApp) restartReplay(fps int) {
	if fps == a.replayFPS && a.replayCancel != nil {
		return
	}
	if a.replayCancel != nil {
		a.replayCancel()
		a.replayCancel = nil
	}
	a.replayFPS = fps
	if fps <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.replayCancel = cancel
	go a.c.Engine.Synthetic.Replay(ctx, fps)
	if a.logger != nil {
		a.logger.Info("synthetic replay started", "fps", fps)
	}
}

func (a *shellApp) exitHandler() {
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.cancel()
	a.c.Engine.UninstallAll()
	Destroy(App)
}
