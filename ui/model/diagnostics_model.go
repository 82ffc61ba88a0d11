package model

import "time"

// ChannelSample is one channel's counters as read from the engine.
type ChannelSample struct {
	Name          string
	Enabled       bool
	Installed     bool
	Authoritative bool
	Markers       uint64
	OutOfRange    uint64
	LastMarker    string
	LastFrameID   uint64
	Detail        string
}

// ChannelRow is a ChannelSample plus the marker rate since the previous
// update.
type ChannelRow struct {
	ChannelSample
	Rate float64
}

// FrameSample carries frame-time statistics of the pacing sink.
type FrameSample struct {
	Begins uint64
	Ends   uint64
	P50Ms  float64
	P95Ms  float64
	P99Ms  float64
	FPS    float64
}

// FallbackSample is the call count of one synthesized endpoint.
type FallbackSample struct {
	Name  string
	Calls uint64
}

// Diagnostics is everything the window shows, flattened to primitives.
type Diagnostics struct {
	State               string
	SimulationStartOnly bool
	PolicyMode          string
	Chosen              string
	Switches            uint64
	Suppressed          uint64
	Channels            []ChannelSample
	Frames              FrameSample
	Extensions          []string
	ExtensionsInjected  bool
	Fallback            []FallbackSample
}

// DiagnosticsModel keeps the previous sample per channel to derive rates.
// It is driven from the UI thread only.
type DiagnosticsModel struct {
	prev   map[string]uint64
	prevAt time.Time
	latest Diagnostics
	rows   []ChannelRow
}

func NewDiagnosticsModel() *DiagnosticsModel {
	return &DiagnosticsModel{prev: make(map[string]uint64)}
}

// Update stores d and returns per-channel rows with markers per second. A
// counter that went backwards was reset and reports a zero rate.
func (m *DiagnosticsModel) Update(now time.Time, d Diagnostics) []ChannelRow {
	if m == nil {
		return nil
	}
	if m.prev == nil {
		m.prev = make(map[string]uint64)
	}
	elapsed := now.Sub(m.prevAt).Seconds()
	first := m.prevAt.IsZero()
	rows := make([]ChannelRow, 0, len(d.Channels))
	for _, ch := range d.Channels {
		row := ChannelRow{ChannelSample: ch}
		if prev, ok := m.prev[ch.Name]; ok && !first && elapsed > 0 && ch.Markers >= prev {
			row.Rate = float64(ch.Markers-prev) / elapsed
		}
		m.prev[ch.Name] = ch.Markers
		rows = append(rows, row)
	}
	m.prevAt = now
	m.latest = d
	m.rows = rows
	return rows
}

// Latest returns the last stored diagnostics and rows.
func (m *DiagnosticsModel) Latest() (Diagnostics, []ChannelRow) {
	if m == nil {
		return Diagnostics{}, nil
	}
	return m.latest, m.rows
}
