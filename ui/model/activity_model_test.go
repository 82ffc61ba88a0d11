package model

import (
	"testing"
	"time"
)

func TestActivityModel_Lifecycle(t *testing.T) {
	m := NewActivityModel()
	base := time.Unix(0, 0)

	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	run, total := m.Values()
	if run != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s run and total; got run=%v total=%v", run, total)
	}

	m.OnTick(false, base.Add(5*time.Second))
	m.OnTick(false, base.Add(7*time.Second))
	run2, total2 := m.Values()
	if run2 != run || total2 != total {
		t.Fatalf("idle tick changed durations: run=%v total=%v", run2, total2)
	}

	m.OnTick(true, base.Add(10*time.Second))
	m.OnTick(true, base.Add(13*time.Second))
	run, total = m.Values()
	if run != 3*time.Second || total != 8*time.Second {
		t.Fatalf("expected 3s run and 8s total; got run=%v total=%v", run, total)
	}

	m.OnTick(false, base.Add(13*time.Second))
	run, total = m.Values()
	if run != 3*time.Second || total != 8*time.Second {
		t.Fatalf("stop must persist totals; got run=%v total=%v", run, total)
	}
}

func TestHooksModel_NilSafe(t *testing.T) {
	var m *HooksModel
	m.SetEnabled(true)
	if m.Enabled() {
		t.Fatalf("nil model must report disabled")
	}
	var h HooksModel
	h.SetEnabled(true)
	if !h.Enabled() {
		t.Fatalf("flag not stored")
	}
}
