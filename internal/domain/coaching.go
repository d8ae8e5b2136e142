package domain

import (
	"strings"
	"time"

	"github.com/grantline/grantline/internal/attachments"
)

// CoachingRecord documents one coaching visit or consultation with a project unit.
type CoachingRecord struct {
	ID             string            `json:"id"`
	ProjectID      string            `json:"projectId"`
	VisitDate      time.Time         `json:"visitDate"`
	AuthorID       string            `json:"authorId"`
	AuthorName     string            `json:"authorName"`
	AuthoredByRole Role              `json:"authoredByRole"`
	Content        string            `json:"content"`
	UnitFeedback   string            `json:"unitFeedback,omitempty"`
	Attachments    []attachments.Ref `json:"attachments,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// InferLegacyRole classifies authorship for records imported from the old
// dataset, which only carried a free-text writer field. New records always
// get an explicit AuthoredByRole at creation; this heuristic exists solely
// for the one-time import migration.
func InferLegacyRole(writer string) Role {
	w := strings.ToLower(writer)
	if strings.Contains(w, "coach") || strings.Contains(writer, "輔導委員") || strings.Contains(writer, "教練") {
		return RoleCoach
	}
	return RoleAdmin
}
