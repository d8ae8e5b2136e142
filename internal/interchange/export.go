// Package interchange serialises the whole dataset to and from its JSON
// exchange document, and emits CSV extracts for spreadsheet use.
package interchange

import (
	"encoding/json"
	"io"
	"time"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/store"
)

// Version identifies the exchange document layout.
const Version = "1.0"

// Payload is the data section of the exchange document.
type Payload struct {
	Projects        []domain.Project        `json:"projects"`
	MonthlyReports  []domain.MonthlyReport  `json:"monthlyReports"`
	CoachingRecords []domain.CoachingRecord `json:"coachingRecords"`
}

// Document is the full exchange envelope. Everything except ExportDate is a
// pure function of the dataset, so two exports of the same state differ only
// in that field.
type Document struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	Data       Payload   `json:"data"`
}

// Export builds the exchange document for a state snapshot.
func Export(st store.State, at time.Time) Document {
	return Document{
		Version:    Version,
		ExportDate: at.UTC(),
		Data: Payload{
			Projects:        emptyIfNil(st.Projects),
			MonthlyReports:  emptyIfNil(st.MonthlyReports),
			CoachingRecords: emptyIfNil(st.CoachingRecords),
		},
	}
}

// EncodeJSON writes the document with stable two-space indentation.
func EncodeJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
