package grants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grantline/grantline/internal/attachments"
)

func TestMergeWithTemplateSynthesizesMissingStages(t *testing.T) {
	merged := MergeWithTemplate(nil)
	require.Len(t, merged, StageCount)
	for i, stage := range merged {
		require.Equal(t, i+1, stage.Ordinal)
		require.Equal(t, StageNotReceived, stage.FinalCheck)
		for _, doc := range stage.Documents {
			require.Equal(t, DocPlaceholder, doc.Status)
			require.False(t, doc.Checked)
		}
	}
}

func TestMergeWithTemplateKeepsStoredDocumentState(t *testing.T) {
	stored := NewStage(0)
	idx, err := documentIndex(stored, "切結書")
	require.NoError(t, err)
	stored.Documents[idx].Status = DocComplete
	stored.Documents[idx].Checked = true
	stored.Documents[idx].Remark = "補件後通過"
	stored.FinalCheck = StageReceived
	sent := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	stored.DocumentSentAt = &sent

	merged := MergeWithTemplate([]Stage{stored})
	got := merged[0]
	kept := got.Documents[idx]
	require.Equal(t, DocComplete, kept.Status)
	require.True(t, kept.Checked)
	require.Equal(t, "補件後通過", kept.Remark)
	require.Equal(t, StageReceived, got.FinalCheck)
	require.Equal(t, &sent, got.DocumentSentAt)

	// Documents the stored stage never touched stay at placeholder.
	other, err := documentIndex(got, "契約書")
	require.NoError(t, err)
	require.Equal(t, DocPlaceholder, got.Documents[other].Status)
}

func TestMergeWithTemplateDropsRetiredDocuments(t *testing.T) {
	stored := NewStage(1)
	stored.Documents = append(stored.Documents, Document{Name: "舊版附件", Status: DocReceived})

	merged := MergeWithTemplate([]Stage{NewStage(0), stored})
	for _, doc := range merged[1].Documents {
		require.NotEqual(t, "舊版附件", doc.Name)
	}
	require.Len(t, merged[1].Documents, len(TemplateNames(1)))
}

func TestApplyDocumentEditWarnsOnMissingRemark(t *testing.T) {
	stage := NewStage(0)
	next, warnings, err := ApplyDocumentEdit(stage, "領據", DocumentEdit{Status: DocRejected})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, "missing_remark", warnings[0].Code)

	idx, err := documentIndex(next, "領據")
	require.NoError(t, err)
	require.Equal(t, DocRejected, next.Documents[idx].Status)

	// The original stage is untouched.
	require.Equal(t, DocPlaceholder, stage.Documents[idx].Status)
}

func TestApplyDocumentEditWithRemarkHasNoWarning(t *testing.T) {
	remark := "印章缺漏"
	_, warnings, err := ApplyDocumentEdit(NewStage(0), "領據", DocumentEdit{Status: DocNeedsSupplement, Remark: &remark})
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestApplyDocumentEditRejectsUnknown(t *testing.T) {
	_, _, err := ApplyDocumentEdit(NewStage(0), "領據", DocumentEdit{Status: DocStatus("archived")})
	require.Error(t, err)

	_, _, err = ApplyDocumentEdit(NewStage(0), "不存在的文件", DocumentEdit{Status: DocReceived})
	require.Error(t, err)
}

func TestAttachFileMarksReceivedAndChecked(t *testing.T) {
	ref := attachments.Ref{ID: "att-1", Name: "contract.pdf"}
	stage, err := AttachFile(NewStage(0), "契約書", ref)
	require.NoError(t, err)

	idx, err := documentIndex(stage, "契約書")
	require.NoError(t, err)
	doc := stage.Documents[idx]
	require.NotNil(t, doc.File)
	require.Equal(t, DocReceived, doc.Status)
	require.True(t, doc.Checked)

	cleared, err := ClearFile(stage, "契約書")
	require.NoError(t, err)
	doc = cleared.Documents[idx]
	require.Nil(t, doc.File)
	require.Equal(t, DocNotUploaded, doc.Status)
	require.False(t, doc.Checked)
}

func TestSetFinalCheckValidatesStatus(t *testing.T) {
	stage, err := SetFinalCheck(NewStage(3), StageComplete)
	require.NoError(t, err)
	require.Equal(t, StageComplete, stage.FinalCheck)

	_, err = SetFinalCheck(stage, StageStatus("done"))
	require.Error(t, err)
}

func TestPercentReady(t *testing.T) {
	stage := NewStage(1)
	require.Zero(t, PercentReady(stage))

	stage.Documents[0].Checked = true
	stage.Documents[1].Checked = true
	require.InDelta(t, 0.5, PercentReady(stage), 1e-9)
}
