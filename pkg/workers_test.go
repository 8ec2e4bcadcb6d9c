package mmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvents(n int) []EventType {
	events := make([]EventType, n)
	for i := range events {
		records := make([]StripRecord, 0, 8)
		for plane := 0; plane < 8; plane++ {
			records = append(records, StripRecord{
				EventID:    i,
				BCTime:     i,
				Charge:     float64(plane),
				VMMChip:    -1,
				MMFEBoard:  -1,
				Plane:      plane,
				Strip:      100 + 10*i + plane,
				StationEta: 1,
				TruthNBG:   true,
			})
		}
		events[i] = EventType{EventID: i, Records: records}
	}
	return events
}

func TestConvertEvent(t *testing.T) {
	par := testParPar()
	par.Qt = 2.5
	p := newTestParameters(t, par)

	ev := ConvertEvent(p, testEvents(1)[0])
	assert.Equal(t, 3, ev.Dropped)
	assert.Equal(t, int64(3), p.Diag.BelowThreshold.Load())
	require.Len(t, ev.Entries, 5)
	require.Len(t, ev.Hits, 5)
	require.Len(t, ev.MMTHits, 5)
	for i, entry := range ev.Entries {
		assert.Equal(t, i+3, entry.Plane)
		assert.Equal(t, entry.Plane, ev.Hits[i].Info.Plane)
		assert.Equal(t, entry.Strip, ev.MMTHits[i].Strip)
	}
	assert.False(t, ev.Error)
}

func TestConvertEvents(t *testing.T) {
	p := newTestParameters(t, testParPar())
	events := testEvents(50)

	for _, workers := range []int{0, 1, 4} {
		converted := ConvertEvents(p, events, workers)
		require.Len(t, converted, len(events))
		for i, ev := range converted {
			assert.Equal(t, i, ev.EventID)
			require.Len(t, ev.MMTHits, 8)
			assert.Equal(t, 100+10*i, ev.MMTHits[0].Strip)
			assert.Equal(t, ConvertEvent(p, events[i]), ev)
		}
	}

	assert.Empty(t, ConvertEvents(p, nil, 2))
}

func TestConvertEventsRecoversPanic(t *testing.T) {
	par := testParPar()
	par.Qt = 2.5
	p := newTestParameters(t, par)
	// dropping a hit bumps the counters, which panics without them
	p.Diag = nil

	events := testEvents(3)
	events[1].Records = events[1].Records[3:]

	converted := ConvertEvents(p, events, 2)
	require.Len(t, converted, 3)
	assert.Equal(t, HitEvent{EventID: 0, Error: true}, converted[0])
	assert.Equal(t, HitEvent{EventID: 2, Error: true}, converted[2])

	assert.False(t, converted[1].Error)
	assert.Equal(t, 1, converted[1].EventID)
	assert.Len(t, converted[1].MMTHits, 5)
}
