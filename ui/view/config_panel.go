package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/marker-pacer-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	onApply  func(*config.Config)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg. onApply, when set, receives
// the validated config after it was saved.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("simulationStartPacing", "Simulation Start Pacing (true/false)", fmt.Sprintf("%t", c.SimulationStartPacing))
	makeRow("authoritativeChannel", "Authoritative Channel (auto/reflex/vulkan/etw/synthetic)", c.AuthoritativeChannel)
	makeRow("channelStaleMs", "Channel Stale Ms", fmt.Sprintf("%d", c.ChannelStaleMs))
	makeRow("enableReflex", "Enable Reflex (true/false)", fmt.Sprintf("%t", c.EnableReflex))
	makeRow("enableVulkan", "Enable Vulkan (true/false)", fmt.Sprintf("%t", c.EnableVulkan))
	makeRow("enableETW", "Enable ETW (true/false)", fmt.Sprintf("%t", c.EnableETW))
	makeRow("injectVulkanExtensions", "Inject Vulkan Extensions (true/false)", fmt.Sprintf("%t", c.InjectVulkanExtensions))
	makeRow("syntheticFPS", "Synthetic FPS (0 = off)", fmt.Sprintf("%d", c.SyntheticFPS))
	makeRow("diagnosticsIntervalSeconds", "Debug Log Interval Seconds", fmt.Sprintf("%d", c.DiagnosticsIntervalSeconds))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.Join(parts, "")
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignInt := func(id string, dst *int) {
		w := v.widgets[id]
		if w == nil {
			return
		}
		if i, ok := parseIntField(strings.TrimSpace(v.text(w))); ok {
			*dst = i
		}
	}
	assignBool := func(id string, dst *bool) {
		w := v.widgets[id]
		if w == nil {
			return
		}
		if b, ok := parseBoolLoose(strings.TrimSpace(v.text(w))); ok {
			*dst = b
		}
	}
	assignBool("simulationStartPacing", &cfg.SimulationStartPacing)
	assignInt("channelStaleMs", &cfg.ChannelStaleMs)
	assignBool("enableReflex", &cfg.EnableReflex)
	assignBool("enableVulkan", &cfg.EnableVulkan)
	assignBool("enableETW", &cfg.EnableETW)
	assignBool("injectVulkanExtensions", &cfg.InjectVulkanExtensions)
	assignInt("syntheticFPS", &cfg.SyntheticFPS)
	assignInt("diagnosticsIntervalSeconds", &cfg.DiagnosticsIntervalSeconds)
	if w := v.widgets["authoritativeChannel"]; w != nil {
		val := strings.TrimSpace(v.text(w))
		if val != "" {
			cfg.AuthoritativeChannel = val
		}
	}
	if verr := cfg.Validate(); verr != nil {
		return
	}
	*v.cfg = cfg
	if v.onApply != nil {
		v.onApply(v.cfg)
	}
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else {
		if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
}

// parsing helpers (unexported)
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
