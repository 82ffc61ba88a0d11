package app

import (
	"log/slog"
	"testing"

	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestEngine(t *testing.T, mutate func(*config.Config)) (*Engine, *recordingSink) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SyntheticFPS = 60
	if mutate != nil {
		mutate(cfg)
	}
	sink := &recordingSink{}
	e := NewEngine(cfg, EngineOptions{
		Fabric:     intercept.NewTable(),
		Resolver:   intercept.StaticResolver{},
		Clock:      &stepClock{step: 1_000_000},
		Downstream: sink,
	}, discardLogger)
	return e, sink
}

func TestEngine_SnapshotBeforeInstall(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s := e.Snapshot()
	if len(s.Channels) != 4 {
		t.Fatalf("expected 4 channels, got %d", len(s.Channels))
	}
	for _, ch := range s.Channels {
		if ch.Installed || ch.Counters.Total() != 0 {
			t.Fatalf("%s: nothing may be installed or counted yet", ch.ID)
		}
	}
	if s.State != pacing.StateIdle || s.Chosen != "none" || s.PolicyMode != "auto" {
		t.Fatalf("unexpected initial snapshot %+v", s)
	}
}

func TestEngine_InstallAllSurvivesMissingModules(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	errs := e.InstallAll()
	for _, id := range []marker.ChannelID{marker.ChannelReflex, marker.ChannelVulkan, marker.ChannelETW} {
		if errs[id] == nil {
			t.Fatalf("%s: expected install failure without modules", id)
		}
		if e.Channel(id).Installed() {
			t.Fatalf("%s: failed channel must stay inactive", id)
		}
	}
	if !e.Synthetic.Installed() || !e.AnyInstalled() {
		t.Fatalf("synthetic channel must install regardless")
	}
	e.UninstallAll()
	e.UninstallAll()
	if e.AnyInstalled() {
		t.Fatalf("uninstall must remove every channel")
	}
}

func TestEngine_DisabledChannelsSkipped(t *testing.T) {
	e, _ := newTestEngine(t, func(c *config.Config) {
		c.EnableReflex = false
		c.EnableVulkan = false
		c.EnableETW = false
	})
	if errs := e.InstallAll(); len(errs) != 0 {
		t.Fatalf("disabled channels must not be attempted: %v", errs)
	}
}

func TestEngine_SyntheticFramesPaceAndReset(t *testing.T) {
	e, sink := newTestEngine(t, nil)
	e.InstallAll()
	for i := uint64(1); i <= 3; i++ {
		e.Synthetic.EmitFrame(i)
	}
	if sink.begins != 3 || sink.ends != 3 {
		t.Fatalf("expected 3 paced frames, got %+v", sink)
	}
	s := e.Snapshot()
	if s.Chosen != marker.ChannelSynthetic.String() {
		t.Fatalf("synthetic must be chosen, got %q", s.Chosen)
	}
	if s.Channels[3].Counters.Total() != 18 || s.Frames.Begins != 3 {
		t.Fatalf("unexpected counters %+v frames %+v", s.Channels[3].Counters, s.Frames)
	}

	e.ResetAll()
	s = e.Snapshot()
	if s.Channels[3].Counters.Total() != 0 || s.Frames.Begins != 0 {
		t.Fatalf("reset must zero counters")
	}
	if !e.Synthetic.Installed() {
		t.Fatalf("reset must keep install state")
	}
}

func TestEngine_ApplyConfigRestrictsPacing(t *testing.T) {
	e, sink := newTestEngine(t, nil)
	e.InstallAll()
	cfg := config.DefaultConfig()
	cfg.SyntheticFPS = 60
	cfg.SimulationStartPacing = true
	cfg.AuthoritativeChannel = config.ChannelSynthetic
	e.ApplyConfig(cfg)
	e.Synthetic.EmitFrame(1)
	if sink.begins != 1 || sink.ends != 1 {
		t.Fatalf("expected one begin and end from simulation start, got %+v", sink)
	}
	if !e.Snapshot().SimulationStartOnly || e.Policy.Mode() != config.ChannelSynthetic {
		t.Fatalf("config not applied")
	}
}

func TestEngine_ResetChannelIsolated(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.InstallAll()
	e.Synthetic.EmitFrame(1)
	e.ResetChannel(marker.ChannelReflex)
	if e.Synthetic.Counters().Total() == 0 {
		t.Fatalf("resetting another channel must not touch synthetic")
	}
	e.ResetChannel(marker.ChannelSynthetic)
	if e.Synthetic.Counters().Total() != 0 {
		t.Fatalf("synthetic counters not reset")
	}
}

func TestEngine_AsSelfMarksCallerOrigin(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	var inside marker.Origin
	e.AsSelf(func() { inside = intercept.CallerOrigin(intercept.SelfModule()) })
	if inside != marker.SelfModule {
		t.Fatalf("calls inside AsSelf must be self, got %v", inside)
	}
}
