package grants

import (
	"fmt"
	"time"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/shared"
)

// MergeWithTemplate reconciles persisted stages with the current templates.
// The join is by exact document name: a stored document matching a template
// name keeps its status, remark, checked flag and file; template documents
// with no stored counterpart start at placeholder. Stored documents no longer
// in the template are dropped from the checklist. Missing stages are
// synthesized whole, so the result always has StageCount entries.
func MergeWithTemplate(stored []Stage) []Stage {
	merged := make([]Stage, StageCount)
	for i := 0; i < StageCount; i++ {
		merged[i] = NewStage(i)
		if i >= len(stored) {
			continue
		}
		prev := stored[i]
		merged[i].DocumentSentAt = prev.DocumentSentAt
		merged[i].PaymentReceivedAt = prev.PaymentReceivedAt
		if ValidStageStatus(prev.FinalCheck) {
			merged[i].FinalCheck = prev.FinalCheck
		}
		byName := make(map[string]Document, len(prev.Documents))
		for _, doc := range prev.Documents {
			if _, dup := byName[doc.Name]; !dup {
				byName[doc.Name] = doc
			}
		}
		for j, doc := range merged[i].Documents {
			if kept, ok := byName[doc.Name]; ok {
				merged[i].Documents[j] = kept
			}
		}
	}
	return merged
}

// DocumentEdit describes a status change against one checklist document.
type DocumentEdit struct {
	Status  DocStatus
	Checked *bool
	Remark  *string
}

// ApplyDocumentEdit returns a copy of the stage with the named document
// updated. Any status may move to any other status; entering rejected or
// needs_supplement without a remark succeeds but yields a missing_remark
// warning for the caller to surface.
func ApplyDocumentEdit(stage Stage, docName string, edit DocumentEdit) (Stage, []shared.Warning, error) {
	if !ValidDocStatus(edit.Status) {
		return stage, nil, fmt.Errorf("%w: unknown document status %q", shared.ErrValidation, edit.Status)
	}
	idx, err := documentIndex(stage, docName)
	if err != nil {
		return stage, nil, err
	}

	next := cloneStage(stage)
	doc := &next.Documents[idx]
	doc.Status = edit.Status
	if edit.Checked != nil {
		doc.Checked = *edit.Checked
	}
	if edit.Remark != nil {
		doc.Remark = *edit.Remark
	}

	var warnings []shared.Warning
	if (doc.Status == DocRejected || doc.Status == DocNeedsSupplement) && doc.Remark == "" {
		warnings = append(warnings, shared.Warningf(shared.WarnMissingRemark,
			"document %q is %s but has no remark", docName, doc.Status))
	}
	return next, warnings, nil
}

// AttachFile records an uploaded file on the named document. The upload side
// effect moves the document to received and checks it off.
func AttachFile(stage Stage, docName string, ref attachments.Ref) (Stage, error) {
	idx, err := documentIndex(stage, docName)
	if err != nil {
		return stage, err
	}
	next := cloneStage(stage)
	doc := &next.Documents[idx]
	doc.File = &ref
	doc.Status = DocReceived
	doc.Checked = true
	return next, nil
}

// ClearFile removes the uploaded file and reverts the upload side effect.
func ClearFile(stage Stage, docName string) (Stage, error) {
	idx, err := documentIndex(stage, docName)
	if err != nil {
		return stage, err
	}
	next := cloneStage(stage)
	doc := &next.Documents[idx]
	doc.File = nil
	doc.Status = DocNotUploaded
	doc.Checked = false
	return next, nil
}

// SetFinalCheck records the authority sign-off for the stage. This is a
// manual gate independent of document completion.
func SetFinalCheck(stage Stage, status StageStatus) (Stage, error) {
	if !ValidStageStatus(status) {
		return stage, fmt.Errorf("%w: unknown stage status %q", shared.ErrValidation, status)
	}
	next := cloneStage(stage)
	next.FinalCheck = status
	return next, nil
}

// SetDates updates the document-sent and payment-received dates. A nil value
// leaves the corresponding field untouched.
func SetDates(stage Stage, sent, received *time.Time) Stage {
	next := cloneStage(stage)
	if sent != nil {
		next.DocumentSentAt = sent
	}
	if received != nil {
		next.PaymentReceivedAt = received
	}
	return next
}

// PercentReady reports checklist progress as checked / total documents.
func PercentReady(stage Stage) float64 {
	if len(stage.Documents) == 0 {
		return 0
	}
	checked := 0
	for _, doc := range stage.Documents {
		if doc.Checked {
			checked++
		}
	}
	return float64(checked) / float64(len(stage.Documents))
}

func documentIndex(stage Stage, docName string) (int, error) {
	for i, doc := range stage.Documents {
		if doc.Name == docName {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: document %q not in stage %d checklist", shared.ErrNotFound, docName, stage.Ordinal)
}

func cloneStage(stage Stage) Stage {
	next := stage
	next.Documents = append([]Document(nil), stage.Documents...)
	return next
}
