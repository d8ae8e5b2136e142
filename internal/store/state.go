// Package store is the entity store: it exclusively owns the four in-memory
// collections and hands out immutable snapshots. Mutations go through Apply,
// a reducer that builds the next state from the prior one, so a failed
// operation leaves the previous state current and a reader holding an older
// snapshot never observes a torn object.
package store

import "github.com/grantline/grantline/internal/domain"

// State is one immutable value of the whole store.
type State struct {
	Projects        []domain.Project        `json:"projects"`
	MonthlyReports  []domain.MonthlyReport  `json:"monthlyReports"`
	CoachingRecords []domain.CoachingRecord `json:"coachingRecords"`
	Users           []domain.User           `json:"users"`
}

// Clone copies the collection slices. Elements are treated as values and
// replaced whole by reducers, never mutated in place, so a shallow element
// copy is sufficient.
func (s State) Clone() State {
	return State{
		Projects:        append([]domain.Project(nil), s.Projects...),
		MonthlyReports:  append([]domain.MonthlyReport(nil), s.MonthlyReports...),
		CoachingRecords: append([]domain.CoachingRecord(nil), s.CoachingRecords...),
		Users:           append([]domain.User(nil), s.Users...),
	}
}

// ProjectByID looks up a project in this state.
func (s State) ProjectByID(id string) (domain.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// ReportsForProject returns all reports belonging to the project.
func (s State) ReportsForProject(projectID string) []domain.MonthlyReport {
	var out []domain.MonthlyReport
	for _, r := range s.MonthlyReports {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

// ReportByID looks up a monthly report in this state.
func (s State) ReportByID(id string) (domain.MonthlyReport, bool) {
	for _, r := range s.MonthlyReports {
		if r.ID == id && id != "" {
			return r, true
		}
	}
	return domain.MonthlyReport{}, false
}

// RecordByID looks up a coaching record in this state.
func (s State) RecordByID(id string) (domain.CoachingRecord, bool) {
	for _, rec := range s.CoachingRecords {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.CoachingRecord{}, false
}

// UserByEmail looks up an account by email.
func (s State) UserByEmail(email string) (domain.User, bool) {
	for _, u := range s.Users {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

// ReplaceProject swaps the project with the same id, returning a new state.
func (s State) ReplaceProject(p domain.Project) State {
	next := s.Clone()
	for i := range next.Projects {
		if next.Projects[i].ID == p.ID {
			next.Projects[i] = p
			return next
		}
	}
	next.Projects = append(next.Projects, p)
	return next
}

// PutReport inserts or replaces a monthly report, returning a new state.
func (s State) PutReport(r domain.MonthlyReport) State {
	next := s.Clone()
	if r.ID != "" {
		for i := range next.MonthlyReports {
			if next.MonthlyReports[i].ID == r.ID {
				next.MonthlyReports[i] = r
				return next
			}
		}
	}
	next.MonthlyReports = append(next.MonthlyReports, r)
	return next
}

// RemoveReport drops a report by id, returning a new state.
func (s State) RemoveReport(id string) State {
	next := s.Clone()
	kept := next.MonthlyReports[:0]
	for _, r := range next.MonthlyReports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	next.MonthlyReports = kept
	return next
}

// PutRecord inserts or replaces a coaching record, returning a new state.
func (s State) PutRecord(rec domain.CoachingRecord) State {
	next := s.Clone()
	for i := range next.CoachingRecords {
		if next.CoachingRecords[i].ID == rec.ID {
			next.CoachingRecords[i] = rec
			return next
		}
	}
	next.CoachingRecords = append(next.CoachingRecords, rec)
	return next
}
