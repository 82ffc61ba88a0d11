package app

import (
	"log/slog"
	"strings"
	"testing"
)

func TestSnapshot_Diagnostics(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.InstallAll()
	e.Synthetic.EmitFrame(7)
	d := e.Snapshot().Diagnostics()
	if len(d.Channels) != 4 {
		t.Fatalf("expected 4 channel rows, got %d", len(d.Channels))
	}
	syn := d.Channels[3]
	if syn.Name != "synthetic" || !syn.Installed || !syn.Authoritative || syn.Markers != 6 {
		t.Fatalf("unexpected synthetic row %+v", syn)
	}
	if syn.LastMarker == "" || syn.LastFrameID != 7 || syn.Detail != "frames=1" {
		t.Fatalf("last marker not carried: %+v", syn)
	}
	if d.Channels[1].Installed || !strings.HasPrefix(d.Channels[1].Detail, "devices=0") {
		t.Fatalf("unexpected vulkan row %+v", d.Channels[1])
	}
	if d.Chosen != "synthetic" || d.Frames.Begins != 1 {
		t.Fatalf("unexpected summary %+v", d)
	}
}

func TestSnapshot_LogAttrs(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	attrs := e.Snapshot().LogAttrs()
	var groups int
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup {
			groups++
		}
	}
	if groups != 4 {
		t.Fatalf("expected one group per channel, got %d", groups)
	}
}
