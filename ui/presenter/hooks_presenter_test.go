package presenter

import (
	"errors"
	"testing"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

type mockModel struct{ enabled bool }

func (m *mockModel) Enabled() bool     { return m.enabled }
func (m *mockModel) SetEnabled(b bool) { m.enabled = b }

type mockEngine struct {
	installs, uninstalls int
	errs                 map[marker.ChannelID]error
	active               bool
}

func (e *mockEngine) InstallAll() map[marker.ChannelID]error {
	e.installs++
	e.active = true
	return e.errs
}
func (e *mockEngine) UninstallAll()      { e.uninstalls++; e.active = false }
func (e *mockEngine) AnyInstalled() bool { return e.active }

type mockView struct {
	editableCalls int
	lastEditable  bool
	status        string
}

func (v *mockView) SetStatus(s string)    { v.status = s }
func (v *mockView) ConfigEditable(b bool) { v.editableCalls++; v.lastEditable = b }

func TestHooksPresenter_EnableDisable_Idempotent(t *testing.T) {
	m := &mockModel{}
	eng := &mockEngine{}
	view := &mockView{}
	p := NewHooksPresenter(m, eng, view, nil)

	p.Enable()
	if !m.Enabled() || eng.installs != 1 || view.lastEditable || view.editableCalls != 1 || view.status != "Hooks: on" {
		t.Fatalf("enable failed: enabled=%v installs=%d editable=%v status=%q", m.Enabled(), eng.installs, view.lastEditable, view.status)
	}
	p.Enable()
	if eng.installs != 1 {
		t.Fatalf("enable not idempotent: installs=%d", eng.installs)
	}

	p.Disable()
	if m.Enabled() || eng.uninstalls != 1 || !view.lastEditable || view.editableCalls != 2 || view.status != "Hooks: off" {
		t.Fatalf("disable failed: enabled=%v uninstalls=%d editable=%v status=%q", m.Enabled(), eng.uninstalls, view.lastEditable, view.status)
	}
	p.Disable()
	if eng.uninstalls != 1 {
		t.Fatalf("disable not idempotent: uninstalls=%d", eng.uninstalls)
	}
}

func TestHooksPresenter_ToggleReportsInactiveChannels(t *testing.T) {
	m := &mockModel{}
	eng := &mockEngine{errs: map[marker.ChannelID]error{
		marker.ChannelVulkan: errors.New("missing"),
		marker.ChannelETW:    errors.New("missing"),
	}}
	view := &mockView{}
	p := NewHooksPresenter(m, eng, view, nil)
	p.Toggle()
	if view.status != "Hooks: on (inactive: etw, vulkan)" {
		t.Fatalf("unexpected status %q", view.status)
	}
	p.Toggle()
	if m.Enabled() || eng.uninstalls != 1 {
		t.Fatalf("toggle disable failed")
	}
}

func TestInstallStatus_NothingActive(t *testing.T) {
	if got := installStatus(nil, false); got != "Hooks: no channel active" {
		t.Fatalf("unexpected status %q", got)
	}
}
