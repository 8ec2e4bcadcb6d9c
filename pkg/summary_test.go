package mmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitSummary(t *testing.T) {
	p := newTestParameters(t, testParPar())
	converted := ConvertEvents(p, testEvents(10), 2)
	converted = append(converted, HitEvent{EventID: 10, Error: true, Dropped: 2})

	s := NewHitSummary(p.NPlanes())
	for _, ev := range converted {
		s.Fill(ev)
	}
	assert.Equal(t, 11, s.Events)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 2, s.Dropped)
	for plane := 0; plane < p.NPlanes(); plane++ {
		assert.Equal(t, int64(10), s.Slopes[plane].Entries())
	}

	// strips 100-197 all sit on the first ART of the board, odd planes on the second
	assert.Equal(t, map[int]int{0: 40, 1: 40}, s.ARTHits)

	report := s.Report()
	require.Len(t, report, 1+p.NPlanes()+1)
	assert.Equal(t, "events 11, errors 1, dropped hits 2", report[0])
	assert.Contains(t, report[1], "plane 0: 10 hits")
	assert.Equal(t, "ART hits 0:40 1:40", report[len(report)-1])

	empty := NewHitSummary(2)
	assert.Equal(t, []string{"events 0, errors 0, dropped hits 0", "plane 0: no hits", "plane 1: no hits"}, empty.Report())
}
