package pacing

import (
	"sync"
	"testing"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

type mockPolicy struct {
	mu            sync.Mutex
	authoritative bool
	chosen        []marker.ChannelID
	lastNow       uint64
}

func (p *mockPolicy) ChooseLimiter(nowNs uint64, site marker.ChannelID) {
	p.mu.Lock()
	p.chosen = append(p.chosen, site)
	p.lastNow = nowNs
	p.mu.Unlock()
}

func (p *mockPolicy) IsAuthoritative(marker.ChannelID) bool { return p.authoritative }

type mockSink struct {
	mu     sync.Mutex
	calls  []string
	driven []bool
}

func (s *mockSink) record(c string, driven bool) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.driven = append(s.driven, driven)
	s.mu.Unlock()
}

func (s *mockSink) OnFrameBeginMarker(d bool)  { s.record("begin", d) }
func (s *mockSink) OnFrameEndMarker(d bool)    { s.record("end", d) }
func (s *mockSink) RecordNativeFrameSample()   { s.record("sample", true) }
func (s *mockSink) sequence() []string         { s.mu.Lock(); defer s.mu.Unlock(); return append([]string(nil), s.calls...) }
func fixedClock(ns uint64) Clock               { return ClockFunc(func() uint64 { return ns }) }
func event(t marker.Type) marker.Event         { return marker.Event{Type: t, Origin: marker.External} }
func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrigger_NormalModePresentStartEnd(t *testing.T) {
	p := &mockPolicy{authoritative: true}
	s := &mockSink{}
	tr := NewTrigger(p, s, fixedClock(100), nil)

	for m := marker.Type(0); m < marker.Count; m++ {
		if m == marker.PresentStart || m == marker.PresentEnd {
			continue
		}
		if r := tr.Handle(event(m), marker.ChannelVulkan); r != RoleIgnore {
			t.Fatalf("marker %v should be ignored, got %v", m, r)
		}
	}
	if len(s.sequence()) != 0 {
		t.Fatalf("no sink calls expected, got %v", s.sequence())
	}

	if r := tr.Handle(event(marker.PresentStart), marker.ChannelVulkan); r != RoleBegin {
		t.Fatalf("present start should begin, got %v", r)
	}
	if tr.State() != StateArmed {
		t.Fatalf("expected armed after begin")
	}
	if !equal(s.sequence(), []string{"sample", "begin"}) {
		t.Fatalf("unexpected sink sequence %v", s.sequence())
	}
	if r := tr.Handle(event(marker.PresentEnd), marker.ChannelVulkan); r != RoleEnd {
		t.Fatalf("present end should end, got %v", r)
	}
	if tr.State() != StateIdle {
		t.Fatalf("expected idle after end")
	}
	if !equal(s.sequence(), []string{"sample", "begin", "end"}) {
		t.Fatalf("unexpected sink sequence %v", s.sequence())
	}
	for _, d := range s.driven {
		if !d {
			t.Fatalf("notifications must be marker driven")
		}
	}
}

func TestTrigger_RestrictedModeSimulationStartBeginsAndEnds(t *testing.T) {
	p := &mockPolicy{authoritative: true}
	s := &mockSink{}
	tr := NewTrigger(p, s, fixedClock(5), nil)
	tr.SetSimulationStartOnly(true)

	if r := tr.Handle(event(marker.PresentStart), marker.ChannelReflex); r != RoleIgnore {
		t.Fatalf("present start must be ignored in restricted mode, got %v", r)
	}
	if r := tr.Handle(event(marker.SimulationStart), marker.ChannelReflex); r != RoleBeginEnd {
		t.Fatalf("simulation start should begin+end, got %v", r)
	}
	if !equal(s.sequence(), []string{"sample", "begin", "end"}) {
		t.Fatalf("unexpected sink sequence %v", s.sequence())
	}
	if tr.State() != StateIdle {
		t.Fatalf("restricted mode releases immediately")
	}
	st := tr.Stats()
	if st.Begins != 1 || st.Ends != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestTrigger_NotAuthoritativeSuppresses(t *testing.T) {
	p := &mockPolicy{authoritative: false}
	s := &mockSink{}
	tr := NewTrigger(p, s, fixedClock(42), nil)

	if r := tr.Handle(event(marker.PresentStart), marker.ChannelETW); r != RoleIgnore {
		t.Fatalf("expected ignore, got %v", r)
	}
	if len(s.sequence()) != 0 {
		t.Fatalf("sink must not be notified, got %v", s.sequence())
	}
	if len(p.chosen) != 1 || p.chosen[0] != marker.ChannelETW || p.lastNow != 42 {
		t.Fatalf("policy should still be asked to choose on begin: %v now=%d", p.chosen, p.lastNow)
	}
	if tr.Stats().Suppressed != 1 {
		t.Fatalf("expected one suppressed marker")
	}
	if tr.State() != StateIdle {
		t.Fatalf("state must not change")
	}
}

func TestTrigger_EventTimestampPreferredOverClock(t *testing.T) {
	p := &mockPolicy{authoritative: true}
	tr := NewTrigger(p, &mockSink{}, fixedClock(1), nil)
	ev := event(marker.PresentStart)
	ev.TimestampNs = 777
	tr.Handle(ev, marker.ChannelVulkan)
	if p.lastNow != 777 {
		t.Fatalf("expected classification timestamp, got %d", p.lastNow)
	}
}

func TestTrigger_SelfOriginIgnored(t *testing.T) {
	p := &mockPolicy{authoritative: true}
	s := &mockSink{}
	tr := NewTrigger(p, s, fixedClock(1), nil)
	ev := event(marker.PresentStart)
	ev.Origin = marker.SelfModule
	if r := tr.Handle(ev, marker.ChannelETW); r != RoleIgnore {
		t.Fatalf("self-originated marker must be ignored")
	}
	if len(p.chosen) != 0 || len(s.sequence()) != 0 {
		t.Fatalf("self-originated marker reached policy or sink")
	}
}

func TestTrigger_ConcurrentChannelsKeepCounts(t *testing.T) {
	p := &mockPolicy{authoritative: true}
	s := &mockSink{}
	tr := NewTrigger(p, s, fixedClock(1), nil)
	var wg sync.WaitGroup
	const perG = 500
	for _, site := range []marker.ChannelID{marker.ChannelReflex, marker.ChannelVulkan, marker.ChannelETW} {
		wg.Add(1)
		go func(site marker.ChannelID) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				tr.Handle(event(marker.PresentStart), site)
				tr.Handle(event(marker.PresentEnd), site)
			}
		}(site)
	}
	wg.Wait()
	st := tr.Stats()
	if st.Begins != 3*perG || st.Ends != 3*perG {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestTrigger_NilPolicyNeverPaces(t *testing.T) {
	s := &mockSink{}
	tr := NewTrigger(nil, s, fixedClock(1), nil)
	if r := tr.Handle(event(marker.PresentStart), marker.ChannelVulkan); r != RoleIgnore {
		t.Fatalf("expected ignore without a policy")
	}
}
