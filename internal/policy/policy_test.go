package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grantline/grantline/internal/domain"
)

var (
	admin = &domain.User{ID: "u-admin", Email: "admin@grantline.local", Role: domain.RoleAdmin}
	coach = &domain.User{ID: "u-coach", Email: "coach@grantline.local", Role: domain.RoleCoach}
	operator = &domain.User{
		ID:     "u-operator",
		Email:  "operator@grantline.local",
		Role:   domain.RoleOperator,
		UnitID: "unit-beitou",
	}
)

func projectFixture() domain.Project {
	return domain.Project{
		ID:     "proj-beitou-2026",
		UnitID: "unit-beitou",
		Commissioner: domain.Contact{
			Name:  "王委員",
			Email: "committee@city.gov",
		},
		Liaison: domain.Contact{
			Name:  "林專員",
			Email: "liaison@unit.org",
		},
		AssignedCoaches:   []string{"u-coach-other"},
		AssignedOperators: []string{"u-operator-other"},
	}
}

func TestVisibleProjectsAdminSeesAll(t *testing.T) {
	all := []domain.Project{projectFixture(), {ID: "proj-other", UnitID: "unit-other"}}
	require.Len(t, VisibleProjects(admin, all), 2)
}

func TestVisibleProjectsNilActorSeesNothing(t *testing.T) {
	require.Nil(t, VisibleProjects(nil, []domain.Project{projectFixture()}))
	require.False(t, CanViewProject(nil, projectFixture()))
}

func TestCoachVisibility(t *testing.T) {
	p := projectFixture()
	require.False(t, CanViewProject(coach, p), "unassigned coach must not see the project")

	assignedByID := p
	assignedByID.AssignedCoaches = []string{coach.ID}
	require.True(t, CanViewProject(coach, assignedByID))

	assignedByEmail := p
	assignedByEmail.AssignedCoaches = []string{coach.Email}
	require.True(t, CanViewProject(coach, assignedByEmail))

	commissioned := p
	commissioned.Commissioner.Email = coach.Email
	require.True(t, CanViewProject(coach, commissioned))
}

func TestOperatorVisibility(t *testing.T) {
	p := projectFixture()
	require.True(t, CanViewProject(operator, p), "same unit grants visibility")

	otherUnit := p
	otherUnit.UnitID = "unit-elsewhere"
	require.False(t, CanViewProject(operator, otherUnit))

	liaison := otherUnit
	liaison.Liaison.Email = operator.Email
	require.True(t, CanViewProject(operator, liaison))

	assigned := otherUnit
	assigned.AssignedOperators = []string{operator.ID}
	require.True(t, CanViewProject(operator, assigned))
}

func TestAssignmentIgnoresEmptyIDs(t *testing.T) {
	p := projectFixture()
	p.UnitID = "unit-elsewhere"
	p.AssignedOperators = []string{""}

	noEmail := &domain.User{ID: "u-blank", Role: domain.RoleOperator}
	require.False(t, CanViewProject(noEmail, p), "empty assignment slots must never match")
}

func TestCanEditProjectIsAdminOnly(t *testing.T) {
	p := projectFixture()
	require.True(t, CanEditProject(admin, p))
	require.False(t, CanEditProject(coach, p))
	require.False(t, CanEditProject(operator, p))
	require.False(t, CanEditProject(nil, p))
}

func TestCanEditReport(t *testing.T) {
	p := projectFixture()
	draft := domain.MonthlyReport{ProjectID: p.ID, Draft: true}
	committed := domain.MonthlyReport{ID: "proj-beitou-2026-MR-01", ProjectID: p.ID}

	require.True(t, CanEditReport(admin, p, draft))
	require.True(t, CanEditReport(admin, p, committed))

	require.True(t, CanEditReport(operator, p, draft))
	require.False(t, CanEditReport(operator, p, committed), "submitted reports are closed to operators")

	foreign := p
	foreign.UnitID = "unit-elsewhere"
	require.False(t, CanEditReport(operator, foreign, draft))

	require.False(t, CanEditReport(coach, p, draft), "coaches never touch reports")
}

func TestCanDeleteReport(t *testing.T) {
	require.True(t, CanDeleteReport(admin))
	require.False(t, CanDeleteReport(coach))
	require.False(t, CanDeleteReport(operator))
	require.False(t, CanDeleteReport(nil))
}

func TestCanEditRecordOwnership(t *testing.T) {
	own := domain.CoachingRecord{AuthorID: coach.ID, AuthoredByRole: domain.RoleCoach}
	foreign := domain.CoachingRecord{AuthorID: "u-coach-other", AuthoredByRole: domain.RoleCoach}
	adminAuthored := domain.CoachingRecord{AuthorID: admin.ID, AuthoredByRole: domain.RoleAdmin}

	require.True(t, CanEditRecord(coach, own))
	require.False(t, CanEditRecord(coach, foreign))
	require.False(t, CanEditRecord(coach, adminAuthored))

	require.True(t, CanEditRecord(admin, foreign))
	require.False(t, CanEditRecord(operator, own))
}

func TestCanEditUnitFeedback(t *testing.T) {
	p := projectFixture()
	require.True(t, CanEditUnitFeedback(admin, p))
	require.True(t, CanEditUnitFeedback(operator, p))
	require.False(t, CanEditUnitFeedback(coach, p))

	foreign := p
	foreign.UnitID = "unit-elsewhere"
	require.False(t, CanEditUnitFeedback(operator, foreign))
}

func TestCanToggleDocument(t *testing.T) {
	p := projectFixture()
	require.True(t, CanToggleDocument(admin, p))
	require.True(t, CanToggleDocument(operator, p))
	require.False(t, CanToggleDocument(coach, p))

	foreign := p
	foreign.UnitID = "unit-elsewhere"
	require.False(t, CanToggleDocument(operator, foreign))
}

func TestCanSetStageStatusIsAdminOnly(t *testing.T) {
	require.True(t, CanSetStageStatus(admin))
	require.False(t, CanSetStageStatus(coach))
	require.False(t, CanSetStageStatus(operator))
}
