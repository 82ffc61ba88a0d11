package model

import (
	"testing"
	"time"
)

func sample(name string, markers uint64) ChannelSample {
	return ChannelSample{Name: name, Installed: true, Markers: markers}
}

func TestDiagnosticsModel_Rates(t *testing.T) {
	m := NewDiagnosticsModel()
	base := time.Unix(100, 0)

	rows := m.Update(base, Diagnostics{Channels: []ChannelSample{sample("vulkan", 10)}})
	if len(rows) != 1 || rows[0].Rate != 0 {
		t.Fatalf("first update must report zero rate, got %+v", rows)
	}
	rows = m.Update(base.Add(2*time.Second), Diagnostics{Channels: []ChannelSample{sample("vulkan", 250)}})
	if rows[0].Rate != 120 {
		t.Fatalf("expected 120/s, got %v", rows[0].Rate)
	}
	rows = m.Update(base.Add(3*time.Second), Diagnostics{Channels: []ChannelSample{sample("vulkan", 0)}})
	if rows[0].Rate != 0 {
		t.Fatalf("reset counter must report zero rate, got %v", rows[0].Rate)
	}
}

func TestDiagnosticsModel_NewChannelAndLatest(t *testing.T) {
	m := &DiagnosticsModel{}
	base := time.Unix(0, 0).Add(time.Hour)
	m.Update(base, Diagnostics{State: "idle", Channels: []ChannelSample{sample("etw", 5)}})
	rows := m.Update(base.Add(time.Second), Diagnostics{
		State:    "armed",
		Channels: []ChannelSample{sample("etw", 6), sample("reflex", 50)},
	})
	if rows[0].Rate != 1 || rows[1].Rate != 0 {
		t.Fatalf("unexpected rates %+v", rows)
	}
	d, latest := m.Latest()
	if d.State != "armed" || len(latest) != 2 {
		t.Fatalf("latest not stored: %+v", d)
	}
}
