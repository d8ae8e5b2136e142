package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
	"github.com/grantline/grantline/internal/store"
)

// coachingWire accepts both current records and legacy ones that only
// carried a free-text writer name instead of an author role.
type coachingWire struct {
	domain.CoachingRecord
	Writer string `json:"writer,omitempty"`
}

type payloadWire struct {
	Projects        json.RawMessage        `json:"projects"`
	MonthlyReports  []domain.MonthlyReport `json:"monthlyReports"`
	CoachingRecords []coachingWire         `json:"coachingRecords"`
}

type documentWire struct {
	Version string      `json:"version"`
	Data    payloadWire `json:"data"`
}

// ParseJSON reads an exchange document into a state. The only structural
// requirement is that data.projects is an array; partial documents import
// whatever sections they carry. Legacy coaching records without an explicit
// author role are classified from their writer text.
func ParseJSON(r io.Reader) (store.State, error) {
	var wire documentWire
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return store.State{}, fmt.Errorf("%w: malformed exchange document: %v", shared.ErrValidation, err)
	}
	trimmed := bytes.TrimSpace(wire.Data.Projects)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return store.State{}, fmt.Errorf("%w: data.projects must be an array", shared.ErrValidation)
	}
	var projects []domain.Project
	if err := json.Unmarshal(wire.Data.Projects, &projects); err != nil {
		return store.State{}, fmt.Errorf("%w: data.projects: %v", shared.ErrValidation, err)
	}

	st := store.State{
		Projects:       projects,
		MonthlyReports: wire.Data.MonthlyReports,
	}
	for _, rec := range wire.Data.CoachingRecords {
		migrated := rec.CoachingRecord
		if migrated.AuthoredByRole == "" {
			migrated.AuthoredByRole = domain.InferLegacyRole(rec.Writer)
		}
		if migrated.AuthorName == "" {
			migrated.AuthorName = rec.Writer
		}
		st.CoachingRecords = append(st.CoachingRecords, migrated)
	}
	return st, nil
}
