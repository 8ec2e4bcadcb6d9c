package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mmt "github.com/nsw-trigger/mmt_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEventFile(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := json.NewEncoder(f)
	for i := 0; i < n; i++ {
		ev := mmt.EventType{EventID: 100 + i, Records: []mmt.StripRecord{{EventID: 100 + i, Plane: i % 8, Strip: 10 * i, Charge: 1}}}
		require.NoError(t, enc.Encode(ev))
	}
	return path
}

func TestReadEvents(t *testing.T) {
	path := writeEventFile(t, 5)
	for _, tc := range []struct {
		name      string
		skip, max int
		want      []int
	}{
		{"all", 0, 100, []int{100, 101, 102, 103, 104}},
		{"skip and max", 1, 2, []int{101, 102}},
		{"skip past end", 10, 100, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			configuration = mmt.Configuration{Skip: tc.skip, MaxEvents: tc.max}
			file, err := os.Open(path)
			require.NoError(t, err)
			defer file.Close()

			events, err := readEvents(NewFileReader(file))
			require.NoError(t, err)
			var ids []int
			for _, ev := range events {
				ids = append(ids, ev.EventID)
				require.Len(t, ev.Records, 1)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestReadEventsBadInput(t *testing.T) {
	configuration = mmt.Configuration{MaxEvents: 100}
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"event_id": 1, "records": []} {"event_id": `), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	events, err := readEvents(NewFileReader(file))
	assert.Error(t, err)
	assert.Len(t, events, 1)
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"setup": "xxuvvuxx", "num_workers": 4, "misal": {"type": 1, "translate": {"X": 0, "Y": 0, "Z": 0.1}}}`), 0o644))

	config, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 4, config.NumWorkers)
	assert.Equal(t, "mysql", config.DBDriver)
	assert.Equal(t, 0.0009, config.H)
	assert.True(t, config.FillTables)
	assert.Equal(t, mmt.Misaligned, config.Misal.Type)
	assert.Equal(t, byte('L'), config.Wedge())

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
