package presenter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soocke/marker-pacer-go/ui/model"
)

// DiagnosticsView renders the flattened diagnostics.
type DiagnosticsView interface {
	SetChannels(rows []model.ChannelRow)
	SetPolicy(text string)
	SetFrames(text string)
	SetExtensions(text string)
	SetFallback(text string)
}

// DiagnosticsPresenter polls the engine on every tick, derives rates in the
// model and formats the results for the view.
type DiagnosticsPresenter struct {
	read   func() model.Diagnostics
	model  *model.DiagnosticsModel
	view   DiagnosticsView
	logger *slog.Logger
}

func NewDiagnosticsPresenter(read func() model.Diagnostics, m *model.DiagnosticsModel, view DiagnosticsView, logger *slog.Logger) *DiagnosticsPresenter {
	if m == nil {
		m = model.NewDiagnosticsModel()
	}
	return &DiagnosticsPresenter{read: read, model: m, view: view, logger: logger}
}

// Tick refreshes every diagnostics widget. A panic while reading or drawing
// is logged and the tick is skipped.
func (p *DiagnosticsPresenter) Tick(now time.Time) {
	if p == nil || p.read == nil || p.view == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("diagnostics refresh panic", "panic", r)
		}
	}()
	d := p.read()
	rows := p.model.Update(now, d)
	p.view.SetChannels(rows)
	p.view.SetPolicy(policyText(d))
	p.view.SetFrames(framesText(d.Frames))
	p.view.SetExtensions(extensionsText(d.Extensions, d.ExtensionsInjected))
	p.view.SetFallback(fallbackText(d.Fallback))
}

func policyText(d model.Diagnostics) string {
	return fmt.Sprintf("Policy: %s  chosen: %s  switches: %d  suppressed: %d", d.PolicyMode, d.Chosen, d.Switches, d.Suppressed)
}

func framesText(f model.FrameSample) string {
	return fmt.Sprintf("Frames: %d/%d  p50 %.2fms  p95 %.2fms  p99 %.2fms  %.1f fps", f.Begins, f.Ends, f.P50Ms, f.P95Ms, f.P99Ms, f.FPS)
}

func extensionsText(names []string, injected bool) string {
	if len(names) == 0 {
		return "Extensions: <no device>"
	}
	suffix := ""
	if injected {
		suffix = " (injected)"
	}
	return "Extensions" + suffix + ": " + strings.Join(names, ", ")
}

func fallbackText(counts []model.FallbackSample) string {
	if len(counts) == 0 {
		return "Fallback: none"
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", c.Name, c.Calls))
	}
	return "Fallback: " + strings.Join(parts, "  ")
}
