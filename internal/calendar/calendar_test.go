package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cal, err := Parse([]byte(`{
		"2025-07-31": ["Lollapalooza Day 1"],
		"2025-08-09": [" Bears preseason "],
		"2025-08-10": []
	}`))
	require.NoError(t, err)

	assert.Equal(t, 2, cal.Len(), "empty days are dropped")

	lookup := cal.Lookup()
	assert.Equal(t, []string{"Lollapalooza Day 1"}, lookup(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"Bears preseason"}, lookup(time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, lookup(time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct{ name, body string }{
		{"malformed json", `{"2025-07-31": `},
		{"bad date", `{"July 31": ["Lolla"]}`},
		{"blank event name", `{"2025-07-31": ["  "]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"2025-07-31": ["Lollapalooza Day 1"]}`), 0o644))

	cal, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cal.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
