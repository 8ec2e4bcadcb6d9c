package mmt

import (
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// HitSummary accumulates per-plane distributions of converted hits.
type HitSummary struct {
	Slopes  []*hbook.H1D
	Ys      []*hbook.H1D
	ARTHits map[int]int
	Events  int
	Errors  int
	Dropped int
}

func NewHitSummary(nplanes int) *HitSummary {
	s := &HitSummary{
		Slopes:  make([]*hbook.H1D, nplanes),
		Ys:      make([]*hbook.H1D, nplanes),
		ARTHits: make(map[int]int),
	}
	for i := 0; i < nplanes; i++ {
		s.Slopes[i] = hbook.NewH1D(100, 0, 1)
		s.Ys[i] = hbook.NewH1D(100, 0, 5000)
	}
	return s
}

func (s *HitSummary) Fill(ev HitEvent) {
	s.Events++
	s.Dropped += ev.Dropped
	if ev.Error {
		s.Errors++
		return
	}
	for _, h := range ev.MMTHits {
		if h.Plane < 0 || h.Plane >= len(s.Slopes) {
			continue
		}
		s.Slopes[h.Plane].Fill(h.Slope, 1)
		s.Ys[h.Plane].Fill(h.Y, 1)
		s.ARTHits[h.ARTASIC]++
	}
}

// Report returns one line per plane and one per ART with hits.
func (s *HitSummary) Report() []string {
	lines := []string{fmt.Sprintf("events %d, errors %d, dropped hits %d", s.Events, s.Errors, s.Dropped)}
	for i, h := range s.Slopes {
		if h.Entries() == 0 {
			lines = append(lines, fmt.Sprintf("plane %d: no hits", i))
			continue
		}
		lines = append(lines, fmt.Sprintf("plane %d: %d hits, slope mean %.5g rms %.5g, y mean %.5g",
			i, h.Entries(), h.XMean(), h.XRMS(), s.Ys[i].XMean()))
	}
	arts := maps.Keys(s.ARTHits)
	sort.Ints(arts)
	var b strings.Builder
	for _, art := range arts {
		fmt.Fprintf(&b, " %d:%d", art, s.ARTHits[art])
	}
	if b.Len() > 0 {
		lines = append(lines, "ART hits"+b.String())
	}
	return lines
}
