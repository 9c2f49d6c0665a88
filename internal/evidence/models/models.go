// Package models holds the evidence corpus types.
package models

import (
	"encoding/json"
	"strings"
)

// Kind is the corpus category a record was loaded from.
type Kind string

const (
	KindProtocol Kind = "protocol"
	KindSystem   Kind = "system"
	KindRitual   Kind = "ritual"
)

// Rank orders kinds for deterministic tie-breaks: protocol, system, ritual.
func (k Kind) Rank() int {
	switch k {
	case KindProtocol:
		return 0
	case KindSystem:
		return 1
	case KindRitual:
		return 2
	default:
		return 3
	}
}

// Citation points at a supporting study.
type Citation struct {
	StudyID string `json:"studyId"`
	Title   string `json:"title,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// Record is one protocol, system or ritual entry. Fields the scorer does not
// use are kept verbatim in Extra.
type Record struct {
	Kind         Kind                       `json:"kind"`
	SourceModule string                     `json:"source_module"`
	Index        int                        `json:"-"`
	ID           string                     `json:"id,omitempty"`
	Label        string                     `json:"label,omitempty"`
	Name         string                     `json:"name,omitempty"`
	Purpose      string                     `json:"purpose,omitempty"`
	Citations    []Citation                 `json:"evidence,omitempty"`
	HZ           *float64                   `json:"hz,omitempty"`
	Extra        map[string]json.RawMessage `json:"extra,omitempty"`
}

const unnamed = "unnamed evidence"

// DisplayName is the label, falling back to name, then id. It is never empty.
func (r *Record) DisplayName() string {
	for _, s := range []string{r.Label, r.Name, r.ID} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return unnamed
}

// FirstStudyID returns the study id of the first citation, or "".
func (r *Record) FirstStudyID() string {
	if len(r.Citations) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Citations[0].StudyID)
}

// ScoreText is the lowercased text the relevance scorer matches against.
func (r *Record) ScoreText() string {
	return strings.ToLower(r.Purpose + " " + r.Label + " " + r.Name)
}

// Hit is a scored match returned by a query.
type Hit struct {
	Record       *Record `json:"record"`
	Score        float64 `json:"score"`
	SourceModule string  `json:"source_module"`
}

// MeasuredEntry is a measuredRegistry row used only for tone lookup.
type MeasuredEntry struct {
	ID           string  `json:"id"`
	HZ           float64 `json:"hz"`
	SourceModule string  `json:"-"`
}

// ToneCommand tells an audio engine what to play for a protocol.
type ToneCommand struct {
	HZ        float64 `json:"hz"`
	DurationS int     `json:"duration_s"`
	VolumeDB  int     `json:"volume_db"`
	Waveform  string  `json:"waveform"`
}

const (
	DefaultToneDurationS = 600
	DefaultToneVolumeDB  = -20
	DefaultToneWaveform  = "sine"
)

// NewToneCommand builds the default ten minute sine command for hz.
func NewToneCommand(hz float64) *ToneCommand {
	return &ToneCommand{
		HZ:        hz,
		DurationS: DefaultToneDurationS,
		VolumeDB:  DefaultToneVolumeDB,
		Waveform:  DefaultToneWaveform,
	}
}

// Stats summarizes a loaded corpus.
type Stats struct {
	Modules       int `json:"modules"`
	Records       int `json:"records"`
	MeasuredTones int `json:"measured_tones"`
	FailedModules int `json:"failed_modules"`
}
