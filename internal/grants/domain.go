// Package grants models the four-stage disbursement checklist each project
// carries: a fixed document template per stage, per-document status edited by
// operators, and an authority-only final check per stage.
package grants

import (
	"time"

	"github.com/grantline/grantline/internal/attachments"
)

// StageCount is the fixed number of disbursement stages per project.
const StageCount = 4

// DocStatus is the state of a single checklist document.
type DocStatus string

const (
	// DocPlaceholder marks a document synthesized from the template that the
	// unit has not interacted with yet.
	DocPlaceholder     DocStatus = "placeholder"
	DocNotUploaded     DocStatus = "not_uploaded"
	DocReceived        DocStatus = "received"
	DocRejected        DocStatus = "rejected"
	DocNeedsSupplement DocStatus = "needs_supplement"
	DocComplete        DocStatus = "complete"
)

// StageStatus is the authority-only overall status of a stage. It is a
// separate sign-off and is never derived from document completion.
type StageStatus string

const (
	StageNotReceived     StageStatus = "not_received"
	StageReceived        StageStatus = "received"
	StageNeedsSupplement StageStatus = "needs_supplement"
	StageRejected        StageStatus = "rejected"
	StageComplete        StageStatus = "complete"
)

// Document is one checklist entry of a disbursement stage.
type Document struct {
	Name    string           `json:"name"`
	Status  DocStatus        `json:"status"`
	Checked bool             `json:"checked"`
	Remark  string           `json:"remark,omitempty"`
	File    *attachments.Ref `json:"file,omitempty"`
}

// Stage is one of the four disbursement phases of a project.
type Stage struct {
	Ordinal           int         `json:"ordinal"`
	Documents         []Document  `json:"documents"`
	DocumentSentAt    *time.Time  `json:"documentSentAt,omitempty"`
	PaymentReceivedAt *time.Time  `json:"paymentReceivedAt,omitempty"`
	FinalCheck        StageStatus `json:"finalCheck"`
}

// ValidDocStatus reports whether s is a recognized document status.
func ValidDocStatus(s DocStatus) bool {
	switch s {
	case DocPlaceholder, DocNotUploaded, DocReceived, DocRejected, DocNeedsSupplement, DocComplete:
		return true
	}
	return false
}

// ValidStageStatus reports whether s is a recognized stage final check.
func ValidStageStatus(s StageStatus) bool {
	switch s {
	case StageNotReceived, StageReceived, StageNeedsSupplement, StageRejected, StageComplete:
		return true
	}
	return false
}
