package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Engine names used in Memory.Analyses entries.
const (
	APILabels  = "labels"
	APIScores  = "scores"
	APICaption = "caption"
)

// StorageKey identifies one stored variant (original or thumbnail) in the
// object store, retained for compensating deletion.
type StorageKey struct {
	Key string `json:"key"`
}

// Analysis is one vision engine's result for a memory. Original holds the
// engine's unfiltered response verbatim.
type Analysis struct {
	API      string          `json:"api"`
	Tags     []string        `json:"tags"`
	Original json.RawMessage `json:"original,omitempty"`
}

type Memory struct {
	gorm.Model
	UserID       uint         `json:"user_id" gorm:"not null;index"`
	Title        string       `json:"title" gorm:"not null"`
	FilePath     string       `json:"filePath" gorm:"not null"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	LocationDesc string       `json:"locationDescrip,omitempty"`
	KeyArray     []StorageKey `json:"keyArray" gorm:"serializer:json"`
	Analyses     []Analysis   `json:"analyses" gorm:"serializer:json"`
	Tags         []string     `json:"tags" gorm:"serializer:json"`
}

// AnalysisByAPI returns the index of the analysis entry for the given engine
// name, or -1. Entries are addressed by name, never by slot position.
func (m *Memory) AnalysisByAPI(api string) int {
	for i, a := range m.Analyses {
		if a.API == api {
			return i
		}
	}
	return -1
}

// UpsertAnalysis appends the engine's result, replacing any previous entry
// from the same engine so a record never holds two entries per engine.
func (m *Memory) UpsertAnalysis(result Analysis) {
	if i := m.AnalysisByAPI(result.API); i >= 0 {
		m.Analyses[i] = result
		return
	}
	m.Analyses = append(m.Analyses, result)
}

// SetCaption rewrites the caption engine's analysis entry. Returns false if
// the record has no caption entry yet.
func (m *Memory) SetCaption(caption string) bool {
	i := m.AnalysisByAPI(APICaption)
	if i < 0 {
		return false
	}
	raw, _ := json.Marshal(caption)
	m.Analyses[i].Tags = []string{caption}
	m.Analyses[i].Original = raw
	return true
}

// StorageKeys flattens KeyArray into the plain key strings handed to the
// object store's batch delete.
func (m *Memory) StorageKeys() []string {
	keys := make([]string, 0, len(m.KeyArray))
	for _, k := range m.KeyArray {
		keys = append(keys, k.Key)
	}
	return keys
}
