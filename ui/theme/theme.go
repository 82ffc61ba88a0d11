package theme

// Palette and ttk style setup for the diagnostics window. InitStyles
// activates the base theme; SetDark switches palettes at runtime.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Light palette.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, cards
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb" // buttons, accents
	ColorPrimaryHi = "#1d4ed8"
	ColorDanger    = "#dc2626" // enabled channel that failed to install
	ColorDangerHi  = "#b91c1c"
	ColorAccent    = "#10b981" // installed channel, armed trigger
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b" // disabled channel
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Border    string
	Primary   string
	Danger    string
	Accent    string
	Text      string
	TextMuted string
	OnAccent  string
}

var dark = PaletteSnapshot{
	AppBg:     "#0f172a",
	Surface:   "#1e293b",
	Border:    "#334155",
	Primary:   "#3b82f6",
	Danger:    "#ef4444",
	Accent:    "#10b981",
	Text:      "#f1f5f9",
	TextMuted: "#94a3b8",
	OnAccent:  "#f0fdf4",
}

var light = PaletteSnapshot{
	AppBg:     ColorBg,
	Surface:   ColorSurface,
	Border:    ColorBorder,
	Primary:   ColorPrimary,
	Danger:    ColorDanger,
	Accent:    ColorAccent,
	Text:      ColorText,
	TextMuted: ColorTextMuted,
	OnAccent:  "white",
}

// CurrentPalette returns colors for the current dark/light mode.
func CurrentPalette() PaletteSnapshot {
	if darkMode {
		return dark
	}
	return light
}

// Style names used with Style(...).
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StyleStateLabel    = "state.TLabel"
)

var darkMode bool

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(CurrentPalette()) }

// SetDark sets dark mode and reapplies styles. Returns the new mode.
func SetDark(on bool) bool {
	darkMode = on
	applyStyles(CurrentPalette())
	return darkMode
}

// ToggleDark flips dark mode and reapplies styles. Returns the new mode.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports current mode.
func IsDark() bool { return darkMode }

func applyStyles(p PaletteSnapshot) {
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(p.AppBg))

	StyleConfigure(StylePrimaryButton,
		Background(p.Primary),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleDangerButton,
		Background(p.Danger),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleAccentLabel,
		Foreground(p.Primary),
		Background(p.Surface),
		Padding("2p 1p"),
	)
	StyleConfigure(StyleStateLabel,
		Foreground(p.OnAccent),
		Background(p.Accent),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
}
