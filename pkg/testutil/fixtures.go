package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// FixedNow is the reference instant used across tests.
var FixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// SampleLibrary is a small evidence corpus in the on-disk JSON layout.
var SampleLibrary = map[string]string{
	"sofie_breath.json": `{
  "protocols": [
    {"id": "box_breath", "label": "Box breathing for stress", "purpose": "reduce stress and calm the nervous system",
     "evidence": [{"studyId": "29616846", "title": "Breathing and stress"}]},
    {"id": "resonant", "name": "Resonant breathing", "purpose": "raise hrv through slow breath"}
  ],
  "measuredRegistry": [
    {"id": "box_breath", "hz": 0.1}
  ]
}`,
	"Sofia_sleep.json": `{
  "rituals": [
    {"id": "wind_down", "label": "Evening wind down", "purpose": "improve sleep quality and calm the mind"}
  ],
  "systems": [
    {"id": "circadian", "label": "Circadian anchor", "purpose": "morning light for sleep timing",
     "evidence": [{"studyId": "31064780"}]}
  ]
}`,
}

// WriteLibrary writes files into a fresh temp dir and returns its path.
func WriteLibrary(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write library file %s: %v", name, err)
		}
	}
	return dir
}
