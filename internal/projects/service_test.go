package projects

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/grants"
	"github.com/grantline/grantline/internal/shared"
)

type fakeRepo struct {
	projects map[string]domain.Project
}

func newFakeRepo(projects ...domain.Project) *fakeRepo {
	r := &fakeRepo{projects: make(map[string]domain.Project)}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (f *fakeRepo) AllProjects(_ context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) ProjectByID(_ context.Context, id string) (domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepo) UpdateProject(_ context.Context, id string, fn UpdateFunc) (domain.Project, error) {
	prev, ok := f.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
	}
	next, err := fn(prev)
	if err != nil {
		return domain.Project{}, err
	}
	f.projects[id] = next
	return next, nil
}

var (
	adminActor    = &domain.User{ID: "u-admin", Email: "admin@grantline.local", Role: domain.RoleAdmin}
	operatorActor = &domain.User{
		ID:     "u-operator",
		Email:  "operator@grantline.local",
		Role:   domain.RoleOperator,
		UnitID: "unit-beitou",
	}
	coachActor = &domain.User{ID: "u-coach", Email: "coach@grantline.local", Role: domain.RoleCoach}
)

func seedProject() domain.Project {
	return domain.Project{
		ID:             "proj-beitou-2026",
		Code:           "BT-2026-014",
		Name:           "北投社區共好計畫",
		UnitID:         "unit-beitou",
		ApprovedAmount: 400000,
		Spent:          12345,
		NextReportSeq:  4,
		BudgetItems: []domain.BudgetItem{
			{ID: "item-events", Name: "活動執行費", Category: domain.CategoryOperating, TotalPrice: 200000},
		},
	}
}

func newTestService(repo RepositoryPort) *Service {
	s := NewService(repo, attachments.NewConverter(1024, nil))
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	return s
}

func TestListMergesStagesAndFilters(t *testing.T) {
	other := seedProject()
	other.ID = "proj-other"
	other.UnitID = "unit-elsewhere"
	repo := newFakeRepo(seedProject(), other)
	svc := newTestService(repo)

	visible, err := svc.List(context.Background(), operatorActor)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "proj-beitou-2026", visible[0].ID)
	require.Len(t, visible[0].Grants, grants.StageCount, "stored nil stages are synthesized on read")

	all, err := svc.List(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(context.Background(), nil)
	require.ErrorIs(t, err, shared.ErrNoActor)
}

func TestGetChecksVisibility(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	p, err := svc.Get(context.Background(), operatorActor, "proj-beitou-2026")
	require.NoError(t, err)
	require.Len(t, p.Grants, grants.StageCount)

	_, err = svc.Get(context.Background(), coachActor, "proj-beitou-2026")
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	_, err = svc.Get(context.Background(), adminActor, "proj-missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSavePreservesDerivedFields(t *testing.T) {
	stored := seedProject()
	stored.Grants = []grants.Stage{grants.NewStage(0)}
	stored.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo(stored)
	svc := newTestService(repo)

	edited := seedProject()
	edited.Name = "北投社區共好計畫(修訂)"
	edited.Spent = 0
	edited.NextReportSeq = 0
	edited.Grants = nil
	edited.CreatedAt = time.Time{}

	saved, err := svc.Save(context.Background(), adminActor, edited)
	require.NoError(t, err)
	require.Equal(t, "北投社區共好計畫(修訂)", saved.Name)
	require.Equal(t, int64(12345), saved.Spent, "the cached total belongs to the report lifecycle")
	require.Equal(t, 4, saved.NextReportSeq, "the sequence counter never rewinds")
	require.Len(t, saved.Grants, 1, "omitted stages keep the stored checklist")
	require.Equal(t, stored.CreatedAt, saved.CreatedAt)
	require.Equal(t, svc.now(), saved.UpdatedAt)
}

func TestSaveRejectsNonAdminAndBadCategory(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	_, err := svc.Save(context.Background(), operatorActor, seedProject())
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	bad := seedProject()
	bad.BudgetItems = append(bad.BudgetItems, domain.BudgetItem{ID: "item-x", Name: "其他", Category: "travel"})
	_, err = svc.Save(context.Background(), adminActor, bad)
	require.ErrorIs(t, err, shared.ErrValidation)

	noID := seedProject()
	noID.ID = ""
	_, err = svc.Save(context.Background(), adminActor, noID)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestEditDocumentPersistsAcrossMerge(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)
	checked := true
	remark := "影本需補正本"

	stage, warnings, err := svc.EditDocument(context.Background(), operatorActor, "proj-beitou-2026", 1, "切結書", grants.DocumentEdit{
		Status:  grants.DocNeedsSupplement,
		Checked: &checked,
		Remark:  &remark,
	})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, 1, stage.Ordinal)

	p, err := svc.Get(context.Background(), adminActor, "proj-beitou-2026")
	require.NoError(t, err)
	var doc grants.Document
	for _, d := range p.Grants[0].Documents {
		if d.Name == "切結書" {
			doc = d
		}
	}
	require.Equal(t, grants.DocNeedsSupplement, doc.Status)
	require.True(t, doc.Checked)
	require.Equal(t, remark, doc.Remark)
}

func TestEditDocumentWarnsOnMissingRemark(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	_, warnings, err := svc.EditDocument(context.Background(), adminActor, "proj-beitou-2026", 2, "期中進度報告", grants.DocumentEdit{
		Status: grants.DocRejected,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, shared.WarnMissingRemark, warnings[0].Code)
}

func TestEditDocumentGates(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	_, _, err := svc.EditDocument(context.Background(), coachActor, "proj-beitou-2026", 1, "契約書", grants.DocumentEdit{
		Status: grants.DocReceived,
	})
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	_, _, err = svc.EditDocument(context.Background(), adminActor, "proj-beitou-2026", 5, "契約書", grants.DocumentEdit{
		Status: grants.DocReceived,
	})
	require.ErrorIs(t, err, shared.ErrValidation, "only four stages exist")

	_, _, err = svc.EditDocument(context.Background(), adminActor, "proj-beitou-2026", 1, "不存在的文件", grants.DocumentEdit{
		Status: grants.DocReceived,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUploadAndClearDocument(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	stage, err := svc.UploadDocument(context.Background(), operatorActor, "proj-beitou-2026", 1, "領據", "receipt.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	for _, d := range stage.Documents {
		if d.Name == "領據" {
			require.Equal(t, grants.DocReceived, d.Status)
			require.True(t, d.Checked)
			require.NotNil(t, d.File)
			require.Equal(t, "receipt.pdf", d.File.Name)
		}
	}

	stage, err = svc.ClearDocument(context.Background(), operatorActor, "proj-beitou-2026", 1, "領據")
	require.NoError(t, err)
	for _, d := range stage.Documents {
		if d.Name == "領據" {
			require.Equal(t, grants.DocNotUploaded, d.Status)
			require.False(t, d.Checked)
			require.Nil(t, d.File)
		}
	}
}

func TestUploadDocumentFailedConversionLeavesProject(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	_, err := svc.UploadDocument(context.Background(), operatorActor, "proj-beitou-2026", 1, "領據", "huge.pdf", "application/pdf", make([]byte, 2048))
	require.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.Get(context.Background(), adminActor, "proj-beitou-2026")
	require.NoError(t, err)
	for _, d := range p.Grants[0].Documents {
		require.Equal(t, grants.DocPlaceholder, d.Status)
	}
}

func TestStageFinalCheckIsAdminOnly(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)

	_, err := svc.SetStageFinalCheck(context.Background(), operatorActor, "proj-beitou-2026", 1, grants.StageComplete)
	require.ErrorIs(t, err, shared.ErrPolicyViolation)

	stage, err := svc.SetStageFinalCheck(context.Background(), adminActor, "proj-beitou-2026", 1, grants.StageComplete)
	require.NoError(t, err)
	require.Equal(t, grants.StageComplete, stage.FinalCheck)

	_, err = svc.SetStageFinalCheck(context.Background(), adminActor, "proj-beitou-2026", 1, "done")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSetStageDates(t *testing.T) {
	repo := newFakeRepo(seedProject())
	svc := newTestService(repo)
	sent := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	stage, err := svc.SetStageDates(context.Background(), adminActor, "proj-beitou-2026", 2, &sent, nil)
	require.NoError(t, err)
	require.NotNil(t, stage.DocumentSentAt)
	require.Equal(t, sent, *stage.DocumentSentAt)
	require.Nil(t, stage.PaymentReceivedAt)

	received := sent.AddDate(0, 0, 14)
	stage, err = svc.SetStageDates(context.Background(), adminActor, "proj-beitou-2026", 2, nil, &received)
	require.NoError(t, err)
	require.NotNil(t, stage.DocumentSentAt, "a nil date leaves the stored one untouched")
	require.Equal(t, received, *stage.PaymentReceivedAt)

	_, err = svc.SetStageDates(context.Background(), operatorActor, "proj-beitou-2026", 2, &sent, nil)
	require.ErrorIs(t, err, shared.ErrPolicyViolation)
}
