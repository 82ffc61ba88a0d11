package view

import (
	"log/slog"
	"time"

	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/ui/model"
	"github.com/soocke/marker-pacer-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	onApply func(*config.Config)

	// Subviews
	Activity    ActivityStats
	Channels    *ChannelTable
	ConfigPanel ConfigPanel

	// Widgets
	StateLabel      *TLabelWidget
	StatusLabel     *LabelWidget
	PolicyLabel     *LabelWidget
	FramesLabel     *LabelWidget
	ExtensionsLabel *LabelWidget
	FallbackLabel   *LabelWidget
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	SetStateLabel(text string)
	SetStatus(text string)
	ConfigEditable(enabled bool)
	SetActivity(run, total time.Duration)
	SetChannels(rows []model.ChannelRow)
	SetPolicy(text string)
	SetFrames(text string)
	SetExtensions(text string)
	SetFallback(text string)
}

// NewRootView returns an unbuilt view. onApply receives the config after the
// user applied panel changes.
func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(onToggleHooks, onReset, onExit func()) {
	if rv == nil {
		return
	}
	// Row 0: activity stats, state label, buttons frame
	rv.Activity = NewActivityStats(nil, 0, 0)
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, Row(0), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	hooksBtn := TButton(Txt("Toggle Hooks"), Style(theme.StylePrimaryButton), Command(onToggleHooks))
	Grid(hooksBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	resetBtn := Button(Txt("Reset Counters"), Command(onReset))
	Grid(resetBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	darkBtn := Button(Txt("Dark Mode"), Command(func() { theme.ToggleDark() }))
	Grid(darkBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(onExit))
	Grid(exitBtn, In(btnFrame), Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	line := func(row int, text string) *LabelWidget {
		l := Label(Txt(text), Anchor("w"))
		Grid(l, Row(row), Column(0), Columnspan(4), Sticky("w"), Padx("0.4m"), Pady("0.1m"))
		return l
	}
	rv.StatusLabel = line(1, "Hooks: off")
	rv.PolicyLabel = line(2, "Policy: -")
	rv.FramesLabel = line(3, "Frames: -")
	rv.ExtensionsLabel = line(4, "Extensions: <no device>")
	rv.FallbackLabel = line(5, "Fallback: none")

	rv.Channels = NewChannelTable(6)

	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, rv.onApply)
	rv.ConfigPanel.Build(7)
}

func setText(l *LabelWidget, text string) {
	if l != nil {
		l.Configure(Txt(text))
	}
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetStatus(text string) {
	if rv != nil {
		setText(rv.StatusLabel, text)
	}
}

// ConfigEditable toggles config panel editability.
func (rv *RootView) ConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

// SetActivity updates both run and total hook durations.
func (rv *RootView) SetActivity(run, total time.Duration) {
	if rv == nil || rv.Activity == nil {
		return
	}
	rv.Activity.SetRun(run)
	rv.Activity.SetTotal(total)
}

func (rv *RootView) SetChannels(rows []model.ChannelRow) {
	if rv != nil {
		rv.Channels.SetChannels(rows)
	}
}

func (rv *RootView) SetPolicy(text string) {
	if rv != nil {
		setText(rv.PolicyLabel, text)
	}
}

func (rv *RootView) SetFrames(text string) {
	if rv != nil {
		setText(rv.FramesLabel, text)
	}
}

func (rv *RootView) SetExtensions(text string) {
	if rv != nil {
		setText(rv.ExtensionsLabel, text)
	}
}

func (rv *RootView) SetFallback(text string) {
	if rv != nil {
		setText(rv.FallbackLabel, text)
	}
}

var _ UI = (*RootView)(nil)
