package domain

import (
	"time"

	"github.com/grantline/grantline/internal/attachments"
)

// FundingSource tags where an expenditure's money came from.
type FundingSource string

const (
	SourceSubsidy    FundingSource = "subsidy"
	SourceSelfFunded FundingSource = "self_funded"
)

// ExpenditureDetail is one spending line inside a monthly report. Lines are
// append-only within a report.
type ExpenditureDetail struct {
	ID           string            `json:"id"`
	BudgetItemID string            `json:"budgetItemId"`
	Source       FundingSource     `json:"source"`
	Amount       int64             `json:"amount"`
	Description  string            `json:"description,omitempty"`
	Attachments  []attachments.Ref `json:"attachments,omitempty"`
}

// MonthlyReport records one month of project spending. The ID stays empty
// until first commit; draft reports are excluded from committed aggregation.
type MonthlyReport struct {
	ID           string              `json:"id,omitempty"`
	ProjectID    string              `json:"projectId"`
	Month        string              `json:"month"`
	Expenditures []ExpenditureDetail `json:"expenditures"`
	Draft        bool                `json:"draft"`
	SubmittedAt  *time.Time          `json:"submittedAt,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Committed reports whether the report counts toward cumulative totals.
func (r MonthlyReport) Committed() bool {
	return !r.Draft
}

// ValidSource reports whether s is a recognized funding source.
func ValidSource(s FundingSource) bool {
	return s == SourceSubsidy || s == SourceSelfFunded
}
