package library

import (
	"encoding/json"
	"fmt"
	"strconv"

	"sofie/internal/evidence/models"
)

// rawModule is the on-disk layout of one corpus file. Unknown top-level keys
// are ignored.
type rawModule struct {
	Protocols        []json.RawMessage `json:"protocols"`
	Systems          []json.RawMessage `json:"systems"`
	Rituals          []json.RawMessage `json:"rituals"`
	MeasuredRegistry []json.RawMessage `json:"measuredRegistry"`
}

// knownFields are decoded into Record; everything else lands in Extra.
var knownFields = map[string]bool{
	"id": true, "label": true, "name": true, "purpose": true, "evidence": true, "hz": true,
}

type rawRecord struct {
	ID        flexString    `json:"id"`
	Label     string        `json:"label"`
	Name      string        `json:"name"`
	Purpose   string        `json:"purpose"`
	Citations []rawCitation `json:"evidence"`
	HZ        *float64      `json:"hz"`
}

type rawCitation struct {
	StudyID flexString `json:"studyId"`
	Title   string     `json:"title"`
	Year    flexString `json:"year"`
}

// flexString accepts ids written either as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*f = flexString(n.String())
	return nil
}

// recordIssue describes one entry that was skipped inside an otherwise valid module.
type recordIssue struct {
	Kind  string
	Index int
	Err   error
}

type parsedModule struct {
	Records  []*models.Record
	Measured []models.MeasuredEntry
	Issues   []recordIssue
}

func parseModule(module string, data []byte) (*parsedModule, error) {
	var raw rawModule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}

	out := &parsedModule{}
	for _, group := range []struct {
		kind    models.Kind
		entries []json.RawMessage
	}{
		{models.KindProtocol, raw.Protocols},
		{models.KindSystem, raw.Systems},
		{models.KindRitual, raw.Rituals},
	} {
		for i, entry := range group.entries {
			rec, err := parseRecord(entry)
			if err != nil {
				out.Issues = append(out.Issues, recordIssue{Kind: string(group.kind), Index: i, Err: err})
				continue
			}
			rec.Kind = group.kind
			rec.SourceModule = module
			rec.Index = i
			out.Records = append(out.Records, rec)
		}
	}

	for i, entry := range raw.MeasuredRegistry {
		var m struct {
			ID flexString `json:"id"`
			HZ *float64   `json:"hz"`
		}
		if err := json.Unmarshal(entry, &m); err != nil {
			out.Issues = append(out.Issues, recordIssue{Kind: "measured", Index: i, Err: err})
			continue
		}
		if m.ID == "" || m.HZ == nil {
			out.Issues = append(out.Issues, recordIssue{Kind: "measured", Index: i, Err: fmt.Errorf("id and hz are required")})
			continue
		}
		out.Measured = append(out.Measured, models.MeasuredEntry{ID: string(m.ID), HZ: *m.HZ, SourceModule: module})
	}
	return out, nil
}

func parseRecord(entry json.RawMessage) (*models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, fmt.Errorf("record must be an object: %w", err)
	}
	var r rawRecord
	if err := json.Unmarshal(entry, &r); err != nil {
		return nil, err
	}

	rec := &models.Record{
		ID:      string(r.ID),
		Label:   r.Label,
		Name:    r.Name,
		Purpose: r.Purpose,
		HZ:      r.HZ,
	}
	for _, c := range r.Citations {
		year, _ := strconv.Atoi(string(c.Year))
		rec.Citations = append(rec.Citations, models.Citation{
			StudyID: string(c.StudyID),
			Title:   c.Title,
			Year:    year,
		})
	}
	for k, v := range fields {
		if knownFields[k] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]json.RawMessage)
		}
		rec.Extra[k] = v
	}
	return rec, nil
}
