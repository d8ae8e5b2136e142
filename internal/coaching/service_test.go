package coaching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
)

type fakeRepo struct {
	projects map[string]domain.Project
	records  map[string]domain.CoachingRecord
}

func newFakeRepo(projects ...domain.Project) *fakeRepo {
	r := &fakeRepo{
		projects: make(map[string]domain.Project),
		records:  make(map[string]domain.CoachingRecord),
	}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (f *fakeRepo) ProjectByID(_ context.Context, id string) (domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepo) RecordsForProject(_ context.Context, projectID string) ([]domain.CoachingRecord, error) {
	var out []domain.CoachingRecord
	for _, rec := range f.records {
		if rec.ProjectID == projectID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecordByID(_ context.Context, id string) (domain.CoachingRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return domain.CoachingRecord{}, fmt.Errorf("%w: coaching record %s", shared.ErrNotFound, id)
	}
	return rec, nil
}

func (f *fakeRepo) InsertRecord(_ context.Context, rec domain.CoachingRecord) error {
	if _, ok := f.records[rec.ID]; ok {
		return fmt.Errorf("%w: coaching record %s already exists", shared.ErrValidation, rec.ID)
	}
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeRepo) UpdateRecord(_ context.Context, id string, fn UpdateFunc) (domain.CoachingRecord, error) {
	prev, ok := f.records[id]
	if !ok {
		return domain.CoachingRecord{}, fmt.Errorf("%w: coaching record %s", shared.ErrNotFound, id)
	}
	next, err := fn(prev)
	if err != nil {
		return domain.CoachingRecord{}, err
	}
	f.records[id] = next
	return next, nil
}

var (
	adminActor = &domain.User{ID: "u-admin", Name: "承辦人", Email: "admin@grantline.local", Role: domain.RoleAdmin}
	coachActor = &domain.User{ID: "u-coach", Name: "陳教練", Email: "coach@grantline.local", Role: domain.RoleCoach}
	operatorActor = &domain.User{
		ID:     "u-operator",
		Name:   "林專員",
		Email:  "operator@grantline.local",
		Role:   domain.RoleOperator,
		UnitID: "unit-beitou",
	}
)

func coachedProject() domain.Project {
	return domain.Project{
		ID:              "proj-beitou-2026",
		UnitID:          "unit-beitou",
		AssignedCoaches: []string{coachActor.ID},
	}
}

func newTestService(repo RepositoryPort) *Service {
	s := NewService(repo)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	return s
}

func TestCreateStampsAuthorship(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID:    "proj-beitou-2026",
		Content:      "第一次到點輔導",
		UnitFeedback: "smuggled",
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, coachActor.ID, rec.AuthorID)
	require.Equal(t, "陳教練", rec.AuthorName)
	require.Equal(t, domain.RoleCoach, rec.AuthoredByRole)
	require.Empty(t, rec.UnitFeedback, "feedback belongs to the unit, not the author")
	require.Equal(t, svc.now(), rec.VisitDate, "missing visit date defaults to now")
}

func TestCreateKeepsExplicitVisitDate(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)
	visited := time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC)

	rec, err := svc.Create(context.Background(), adminActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		VisitDate: visited,
		Content:   "電話諮詢",
	})
	require.NoError(t, err)
	require.Equal(t, visited, rec.VisitDate)
	require.Equal(t, domain.RoleAdmin, rec.AuthoredByRole)
}

func TestCreateRejectsOperatorAndBlankContent(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), operatorActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "not mine to write",
	})
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	_, err = svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "   ",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), nil, domain.CoachingRecord{ProjectID: "proj-beitou-2026", Content: "x"})
	require.ErrorIs(t, err, shared.ErrNoActor)
}

func TestCreateChecksProjectVisibility(t *testing.T) {
	p := coachedProject()
	p.AssignedCoaches = nil
	repo := newFakeRepo(p)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: p.ID,
		Content:   "unassigned",
	})
	require.ErrorIs(t, err, shared.ErrPolicyViolation)
}

func TestEditBodyOwnership(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "原始內容",
	})
	require.NoError(t, err)

	otherCoach := &domain.User{ID: "u-coach-2", Role: domain.RoleCoach}
	_, err = svc.EditBody(context.Background(), otherCoach, rec.ID, "竄改", nil)
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	updated, err := svc.EditBody(context.Background(), coachActor, rec.ID, "修訂內容", nil)
	require.NoError(t, err)
	require.Equal(t, "修訂內容", updated.Content)

	updated, err = svc.EditBody(context.Background(), adminActor, rec.ID, "承辦修訂", nil)
	require.NoError(t, err)
	require.Equal(t, "承辦修訂", updated.Content)
}

func TestEditBodyAttachments(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID:   "proj-beitou-2026",
		Content:     "含附件",
		Attachments: []attachments.Ref{{ID: "att-1", Name: "photo.png"}},
	})
	require.NoError(t, err)

	// nil leaves attachments alone, a non-nil slice replaces them.
	updated, err := svc.EditBody(context.Background(), coachActor, rec.ID, "內容而已", nil)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)

	updated, err = svc.EditBody(context.Background(), coachActor, rec.ID, "換附件",
		[]attachments.Ref{{ID: "att-2", Name: "receipt.pdf"}, {ID: "att-3", Name: "site.jpg"}})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 2)
	require.Equal(t, "att-2", updated.Attachments[0].ID)
}

func TestEditBodyRejectsBlankContent(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "原始內容",
	})
	require.NoError(t, err)

	_, err = svc.EditBody(context.Background(), coachActor, rec.ID, "  ", nil)
	require.ErrorIs(t, err, shared.ErrValidation)
	stored, _ := repo.RecordByID(context.Background(), rec.ID)
	require.Equal(t, "原始內容", stored.Content)
}

func TestSetUnitFeedback(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "建議事項",
	})
	require.NoError(t, err)

	updated, err := svc.SetUnitFeedback(context.Background(), operatorActor, rec.ID, "已依建議調整排程")
	require.NoError(t, err)
	require.Equal(t, "已依建議調整排程", updated.UnitFeedback)
	require.Equal(t, "建議事項", updated.Content, "feedback writes never touch the body")

	_, err = svc.SetUnitFeedback(context.Background(), coachActor, rec.ID, "越權")
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	foreignOperator := &domain.User{ID: "u-op-2", Role: domain.RoleOperator, UnitID: "unit-elsewhere"}
	_, err = svc.SetUnitFeedback(context.Background(), foreignOperator, rec.ID, "別單位")
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	_, err = svc.SetUnitFeedback(context.Background(), operatorActor, "rec-missing", "x")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListForProjectVisibility(t *testing.T) {
	repo := newFakeRepo(coachedProject())
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), coachActor, domain.CoachingRecord{
		ProjectID: "proj-beitou-2026",
		Content:   "紀錄",
	})
	require.NoError(t, err)

	recs, err := svc.ListForProject(context.Background(), operatorActor, "proj-beitou-2026")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	stranger := &domain.User{ID: "u-coach-9", Role: domain.RoleCoach}
	_, err = svc.ListForProject(context.Background(), stranger, "proj-beitou-2026")
	require.ErrorIs(t, err, shared.ErrPolicyViolation)
}
