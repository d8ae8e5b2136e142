// Package policy is the role and ownership based visibility filter. Every
// read and mutation in the system consults it before touching the store; it
// is pure and keeps no state of its own.
package policy

import (
	"github.com/grantline/grantline/internal/domain"
)

// VisibleProjects filters the full project collection down to what the
// actor may read. Admins see everything; coaches see projects they advise
// or commission; operators see their unit's projects and assignments.
func VisibleProjects(actor *domain.User, all []domain.Project) []domain.Project {
	if actor == nil {
		return nil
	}
	if actor.Is(domain.RoleAdmin) {
		return all
	}
	visible := make([]domain.Project, 0, len(all))
	for _, p := range all {
		if CanViewProject(actor, p) {
			visible = append(visible, p)
		}
	}
	return visible
}

// CanViewProject reports whether a single project is readable by the actor.
func CanViewProject(actor *domain.User, p domain.Project) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCoach:
		if actor.Email != "" && p.Commissioner.Email == actor.Email {
			return true
		}
		return assigned(actor, p.AssignedCoaches)
	case domain.RoleOperator:
		if actor.UnitID != "" && p.UnitID == actor.UnitID {
			return true
		}
		if actor.Email != "" && p.Liaison.Email == actor.Email {
			return true
		}
		return assigned(actor, p.AssignedOperators)
	}
	return false
}

// CanEditProject reports whether the actor may change project budget or
// basic data. Coaches and operators are read-only here.
func CanEditProject(actor *domain.User, _ domain.Project) bool {
	return actor != nil && actor.Is(domain.RoleAdmin)
}

// CanEditReport reports whether the actor may create or modify the given
// monthly report. Operators edit drafts of their visible projects; once a
// report is submitted only admins may touch it. Coaches never edit reports.
func CanEditReport(actor *domain.User, p domain.Project, r domain.MonthlyReport) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleOperator:
		return r.Draft && CanViewProject(actor, p)
	}
	return false
}

// CanDeleteReport guards the administrative removal of a report.
func CanDeleteReport(actor *domain.User) bool {
	return actor != nil && actor.Is(domain.RoleAdmin)
}

// CanEditRecord reports whether the actor may edit a coaching record's
// body. Coaches own only what they authored.
func CanEditRecord(actor *domain.User, rec domain.CoachingRecord) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCoach:
		return rec.AuthoredByRole == domain.RoleCoach && rec.AuthorID == actor.ID
	}
	return false
}

// CanEditUnitFeedback covers the single free-text field an operator may
// write on a coaching record for its own project.
func CanEditUnitFeedback(actor *domain.User, p domain.Project) bool {
	if actor == nil {
		return false
	}
	if actor.Is(domain.RoleAdmin) {
		return true
	}
	return actor.Is(domain.RoleOperator) && CanViewProject(actor, p)
}

// CanToggleDocument covers per-document checklist edits on a grant stage.
// Operators may track progress on visible projects; the stage final check
// stays admin-only, see CanSetStageStatus.
func CanToggleDocument(actor *domain.User, p domain.Project) bool {
	if actor == nil {
		return false
	}
	if actor.Is(domain.RoleAdmin) {
		return true
	}
	return actor.Is(domain.RoleOperator) && CanViewProject(actor, p)
}

// CanSetStageStatus guards the authority final check on a grant stage.
func CanSetStageStatus(actor *domain.User) bool {
	return actor != nil && actor.Is(domain.RoleAdmin)
}

func assigned(actor *domain.User, ids []string) bool {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if id == actor.ID || (actor.Email != "" && id == actor.Email) {
			return true
		}
	}
	return false
}
