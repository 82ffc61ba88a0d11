package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// ActivityStats shows how long hooks have been installed.
type ActivityStats interface {
	SetRun(d time.Duration)
	SetTotal(d time.Duration)
}

type activityStats struct {
	runLbl   *LabelWidget
	totalLbl *LabelWidget
}

// NewActivityStats creates the run and total labels at (row, startCol) and
// (row, startCol+1). If parent is nil, labels are positioned relative to the
// App root.
func NewActivityStats(parent *FrameWidget, row, startCol int) ActivityStats {
	s := &activityStats{runLbl: Label(Width(14)), totalLbl: Label(Width(14))}
	if parent != nil {
		Grid(s.runLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.totalLbl, In(parent), Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	} else {
		Grid(s.runLbl, Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
		Grid(s.totalLbl, Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	}
	s.runLbl.Configure(Txt("Hooked: 00:00"))
	s.totalLbl.Configure(Txt("Total: 00:00"))
	return s
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (s *activityStats) SetRun(d time.Duration) {
	if s == nil || s.runLbl == nil {
		return
	}
	s.runLbl.Configure(Txt("Hooked: " + clock(d)))
}

func (s *activityStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("Total: " + clock(d)))
}
