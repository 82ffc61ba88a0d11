package reflex

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/soocke/marker-pacer-go/domain/fallback"
	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type mockPolicy struct {
	authoritative bool
	chosen        []marker.ChannelID
}

func (p *mockPolicy) ChooseLimiter(_ uint64, site marker.ChannelID) { p.chosen = append(p.chosen, site) }
func (p *mockPolicy) IsAuthoritative(marker.ChannelID) bool         { return p.authoritative }

type mockSink struct{ begins, ends, samples int }

func (s *mockSink) OnFrameBeginMarker(bool)  { s.begins++ }
func (s *mockSink) OnFrameEndMarker(bool)    { s.ends++ }
func (s *mockSink) RecordNativeFrameSample() { s.samples++ }

const wrapper = 0xbeef

func newTestAdapter(t *testing.T, policy *mockPolicy, sink *mockSink) (*Adapter, *intercept.Table, *fallback.Registry) {
	t.Helper()
	table := intercept.NewTable()
	next := uintptr(0x8000)
	reg := fallback.NewRegistry(func(string, uintptr, func()) uintptr {
		next += 0x10
		return next
	}, discardLogger)
	a := New(Options{
		Fabric:   table,
		Resolver: intercept.StaticResolver{Module + "!" + FnQueryInterface: 0x1000},
		Trigger:  pacing.NewTrigger(policy, sink, pacing.ClockFunc(func() uint64 { return 3 }), discardLogger),
		Fallback: reg,
		Logger:   discardLogger,
		Hooks: func(*Adapter) []intercept.Hook {
			return []intercept.Hook{{Module: Module, Name: FnQueryInterface, Replacement: 0xa}}
		},
		MarkerWrapper: wrapper,
	})
	return a, table, reg
}

func TestInstall(t *testing.T) {
	a, table, _ := newTestAdapter(t, &mockPolicy{}, &mockSink{})
	if err := a.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !a.Installed() || table.Len() != 1 {
		t.Fatalf("expected one hook")
	}
	a.Uninstall()
	if a.Installed() || table.Len() != 0 {
		t.Fatalf("uninstall left hooks")
	}
}

func TestInstall_ModuleMissing(t *testing.T) {
	a := New(Options{
		Fabric:        intercept.NewTable(),
		Resolver:      intercept.StaticResolver{},
		Hooks:         func(*Adapter) []intercept.Hook { return []intercept.Hook{{Module: Module, Name: FnQueryInterface, Replacement: 1}} },
		MarkerWrapper: wrapper,
	})
	if err := a.Install(); !errors.Is(err, intercept.ErrResolve) {
		t.Fatalf("expected ErrResolve, got %v", err)
	}
	if a.Installed() {
		t.Fatalf("adapter must stay inactive")
	}
}

func TestSetLatencyMarker_RestrictedMode(t *testing.T) {
	policy := &mockPolicy{authoritative: true}
	sink := &mockSink{}
	a, _, _ := newTestAdapter(t, policy, sink)
	a.trigger.SetSimulationStartOnly(true)

	ok := func() Status { return StatusOK }
	for m := uint32(0); m < 6; m++ {
		a.SetLatencyMarker(100, m, marker.External, ok)
	}
	if sink.begins != 1 || sink.ends != 1 || sink.samples != 1 {
		t.Fatalf("expected one begin and end from simulation start, got %+v", sink)
	}
	if len(policy.chosen) != 1 || policy.chosen[0] != marker.ChannelReflex {
		t.Fatalf("expected one limiter choice tagged reflex, got %v", policy.chosen)
	}
	if a.Counters().Total() != 6 {
		t.Fatalf("all markers must be counted")
	}
}

func TestSetLatencyMarker_ForwardStatusReturned(t *testing.T) {
	a, _, _ := newTestAdapter(t, &mockPolicy{authoritative: true}, &mockSink{})
	got := a.SetLatencyMarker(1, uint32(marker.PresentStart), marker.External, func() Status { return StatusError })
	if got != StatusError {
		t.Fatalf("driver status must be returned, got %d", got)
	}
}

func TestSetLatencyMarker_SelfAndOutOfRange(t *testing.T) {
	sink := &mockSink{}
	a, _, _ := newTestAdapter(t, &mockPolicy{authoritative: true}, sink)
	forwarded := 0
	fwd := func() Status { forwarded++; return StatusOK }
	a.SetLatencyMarker(1, uint32(marker.PresentStart), marker.SelfModule, fwd)
	a.SetLatencyMarker(1, 25, marker.External, fwd)
	if forwarded != 2 {
		t.Fatalf("every call must be forwarded")
	}
	snap := a.Counters()
	if snap.Total() != 0 || snap.OutOfRange != 1 || sink.begins != 0 {
		t.Fatalf("unexpected counters %+v sink %+v", snap, sink)
	}
	if a.Stats().SelfCalls != 1 {
		t.Fatalf("expected one self call")
	}
}

func TestOnQueryInterface(t *testing.T) {
	a, table, reg := newTestAdapter(t, &mockPolicy{authoritative: true}, &mockSink{})
	if err := a.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}
	if got := a.OnQueryInterface(IDSetLatencyMarker, 0x4444); got != 0x4444 {
		t.Fatalf("real marker interface must be returned, got %#x", got)
	}
	if repl, ok := table.Lookup(0x4444); !ok || repl != wrapper {
		t.Fatalf("real marker interface must be hooked in place")
	}
	for _, id := range []uint32{IDSleep, IDSetSleepMode, IDGetLatency} {
		if a.OnQueryInterface(id, 0) == 0 || !reg.Synthesized(InterfaceName(id)) {
			t.Fatalf("%s: expected fallback stub", InterfaceName(id))
		}
	}
	if a.OnQueryInterface(0x12345678, 0) != 0 {
		t.Fatalf("unknown interfaces must pass through")
	}
	if a.Stats().Queries != 5 {
		t.Fatalf("expected 5 queries, got %d", a.Stats().Queries)
	}
}

func TestOnQueryInterface_MissingMarkerSynthesized(t *testing.T) {
	sink := &mockSink{}
	a, _, reg := newTestAdapter(t, &mockPolicy{authoritative: true}, sink)
	if got := a.OnQueryInterface(IDSetLatencyMarker, 0); got != wrapper {
		t.Fatalf("expected marker wrapper, got %#x", got)
	}
	if st := a.SetLatencyMarker(9, uint32(marker.PresentStart), marker.External, nil); st != StatusOK {
		t.Fatalf("synthesized marker must succeed, got %d", st)
	}
	if reg.Calls(InterfaceName(IDSetLatencyMarker)) != 1 || sink.begins != 1 {
		t.Fatalf("synthesized call must count and pace")
	}
}

func TestOnQueryInterface_SecondRealMarkerNotHooked(t *testing.T) {
	a, table, _ := newTestAdapter(t, &mockPolicy{authoritative: true}, &mockSink{})
	if err := a.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}
	a.OnQueryInterface(IDSetLatencyMarker, 0x4444)
	if got := a.OnQueryInterface(IDSetLatencyMarker, 0x5555); got != 0x5555 {
		t.Fatalf("real pointer must be returned unchanged, got %#x", got)
	}
	if _, ok := table.Lookup(0x5555); ok {
		t.Fatalf("a second distinct marker pointer must not be hooked")
	}
	if got := a.origMarker.Load(); got != 0x4444 {
		t.Fatalf("wrapper must forward to the first hooked original, got %#x", got)
	}
}
