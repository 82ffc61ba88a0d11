package view

import (
	"fmt"

	"github.com/soocke/marker-pacer-go/ui/model"
	"github.com/soocke/marker-pacer-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

var channelColumns = []string{"Channel", "Hooked", "Auth", "Markers", "Rate/s", "OOR", "Last", "Frame", "Detail"}

// ChannelTable renders one row of labels per marker channel. Rows are
// created on first use and reused afterwards.
type ChannelTable struct {
	frame *FrameWidget
	rows  map[string][]*LabelWidget
	next  int
}

// NewChannelTable places the table at row of the root grid.
func NewChannelTable(row int) *ChannelTable {
	t := &ChannelTable{frame: Frame(Borderwidth(1), Relief("groove")), rows: make(map[string][]*LabelWidget)}
	Grid(t.frame, Row(row), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	for col, name := range channelColumns {
		Grid(Label(Txt(name), Anchor("w")), In(t.frame), Row(0), Column(col), Sticky("w"), Padx("0.3m"))
	}
	t.next = 1
	return t
}

func (t *ChannelTable) row(name string) []*LabelWidget {
	if cells, ok := t.rows[name]; ok {
		return cells
	}
	cells := make([]*LabelWidget, len(channelColumns))
	for col := range cells {
		cells[col] = Label(Anchor("w"), Width(10))
		Grid(cells[col], In(t.frame), Row(t.next), Column(col), Sticky("w"), Padx("0.3m"))
	}
	cells[len(cells)-1].Configure(Width(40))
	t.next++
	t.rows[name] = cells
	return cells
}

// SetChannels writes the rows.
func (t *ChannelTable) SetChannels(rows []model.ChannelRow) {
	if t == nil || t.frame == nil {
		return
	}
	pal := theme.CurrentPalette()
	for _, r := range rows {
		cells := t.row(r.Name)
		hooked, color := "off", pal.TextMuted
		switch {
		case r.Installed:
			hooked, color = "on", pal.Accent
		case r.Enabled:
			hooked, color = "inactive", pal.Danger
		}
		auth := ""
		if r.Authoritative {
			auth = "*"
		}
		last := "-"
		if r.LastMarker != "" {
			last = r.LastMarker
		}
		values := []string{
			r.Name,
			hooked,
			auth,
			fmt.Sprintf("%d", r.Markers),
			fmt.Sprintf("%.1f", r.Rate),
			fmt.Sprintf("%d", r.OutOfRange),
			last,
			fmt.Sprintf("%d", r.LastFrameID),
			r.Detail,
		}
		for i, v := range values {
			cells[i].Configure(Txt(v))
		}
		cells[1].Configure(Foreground(color))
	}
}
