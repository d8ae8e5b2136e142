package store

import (
	"context"
	"fmt"

	"github.com/grantline/grantline/internal/coaching"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/projects"
	"github.com/grantline/grantline/internal/reports"
	"github.com/grantline/grantline/internal/shared"
)

// The Store satisfies the repository ports of every service. All reads come
// off one snapshot; all writes run inside Apply so each mutation observes a
// consistent State and commits atomically.

// AllProjects implements projects.RepositoryPort.
func (s *Store) AllProjects(_ context.Context) ([]domain.Project, error) {
	return s.Snapshot().Projects, nil
}

// ProjectByID implements the project lookup shared by several ports.
func (s *Store) ProjectByID(_ context.Context, id string) (domain.Project, error) {
	p, ok := s.Snapshot().ProjectByID(id)
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
	}
	return p, nil
}

// UpdateProject implements projects.RepositoryPort.
func (s *Store) UpdateProject(ctx context.Context, id string, fn projects.UpdateFunc) (domain.Project, error) {
	var result domain.Project
	_, err := s.Apply(ctx, func(st State) (State, error) {
		prev, ok := st.ProjectByID(id)
		if !ok {
			return st, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
		}
		next, err := fn(prev)
		if err != nil {
			return st, err
		}
		result = next
		return st.ReplaceProject(next), nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return result, nil
}

// ReportsForProject implements reports.RepositoryPort.
func (s *Store) ReportsForProject(_ context.Context, projectID string) ([]domain.MonthlyReport, error) {
	return s.Snapshot().ReportsForProject(projectID), nil
}

// ReportByID implements reports.RepositoryPort.
func (s *Store) ReportByID(_ context.Context, id string) (domain.MonthlyReport, error) {
	r, ok := s.Snapshot().ReportByID(id)
	if !ok {
		return domain.MonthlyReport{}, fmt.Errorf("%w: report %s", shared.ErrNotFound, id)
	}
	return r, nil
}

// MutateProjectReports implements reports.RepositoryPort. The mutation sees
// the project and its reports from the same State and its result replaces
// both in one commit.
func (s *Store) MutateProjectReports(ctx context.Context, projectID string, fn reports.MutateFunc) error {
	_, err := s.Apply(ctx, func(st State) (State, error) {
		p, ok := st.ProjectByID(projectID)
		if !ok {
			return st, fmt.Errorf("%w: project %s", shared.ErrNotFound, projectID)
		}
		nextProject, nextReports, err := fn(p, st.ReportsForProject(projectID))
		if err != nil {
			return st, err
		}
		next := st.ReplaceProject(nextProject)
		kept := make([]domain.MonthlyReport, 0, len(next.MonthlyReports)+len(nextReports))
		for _, r := range next.MonthlyReports {
			if r.ProjectID != projectID {
				kept = append(kept, r)
			}
		}
		kept = append(kept, nextReports...)
		next.MonthlyReports = kept
		return next, nil
	})
	return err
}

// RecordsForProject implements coaching.RepositoryPort.
func (s *Store) RecordsForProject(_ context.Context, projectID string) ([]domain.CoachingRecord, error) {
	var out []domain.CoachingRecord
	for _, rec := range s.Snapshot().CoachingRecords {
		if rec.ProjectID == projectID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RecordByID implements coaching.RepositoryPort.
func (s *Store) RecordByID(_ context.Context, id string) (domain.CoachingRecord, error) {
	rec, ok := s.Snapshot().RecordByID(id)
	if !ok {
		return domain.CoachingRecord{}, fmt.Errorf("%w: coaching record %s", shared.ErrNotFound, id)
	}
	return rec, nil
}

// InsertRecord implements coaching.RepositoryPort.
func (s *Store) InsertRecord(ctx context.Context, rec domain.CoachingRecord) error {
	_, err := s.Apply(ctx, func(st State) (State, error) {
		if _, ok := st.RecordByID(rec.ID); ok {
			return st, fmt.Errorf("%w: coaching record %s already exists", shared.ErrValidation, rec.ID)
		}
		return st.PutRecord(rec), nil
	})
	return err
}

// UpdateRecord implements coaching.RepositoryPort.
func (s *Store) UpdateRecord(ctx context.Context, id string, fn coaching.UpdateFunc) (domain.CoachingRecord, error) {
	var result domain.CoachingRecord
	_, err := s.Apply(ctx, func(st State) (State, error) {
		prev, ok := st.RecordByID(id)
		if !ok {
			return st, fmt.Errorf("%w: coaching record %s", shared.ErrNotFound, id)
		}
		next, err := fn(prev)
		if err != nil {
			return st, err
		}
		result = next
		return st.PutRecord(next), nil
	})
	if err != nil {
		return domain.CoachingRecord{}, err
	}
	return result, nil
}

// ReplaceData swaps the project, report and record sections wholesale, as
// when importing an exchange document. User accounts are not part of the
// exchange format and survive the swap.
func (s *Store) ReplaceData(ctx context.Context, data State) error {
	_, err := s.Apply(ctx, func(st State) (State, error) {
		next := st.Clone()
		next.Projects = data.Projects
		next.MonthlyReports = data.MonthlyReports
		next.CoachingRecords = data.CoachingRecords
		return next, nil
	})
	return err
}

// ListUsers implements users.RepositoryPort.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	return s.Snapshot().Users, nil
}

// UserByEmail implements users.RepositoryPort.
func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := s.Snapshot().UserByEmail(email)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, email)
	}
	return u, nil
}
