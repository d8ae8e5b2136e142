// Package domain holds the entity model shared across the service: projects
// with their budget lines and grant stages, monthly expenditure reports,
// coaching records, and actor accounts. Entities are plain values; the store
// owns the collections and every other component works on snapshots.
package domain

import (
	"time"

	"github.com/grantline/grantline/internal/grants"
)

// PersonnelCeilingRate caps personnel spending within a single monthly
// report at this share of the approved amount. The check is intentionally
// report-local rather than cumulative across months.
const PersonnelCeilingRate = 0.30

// Category classifies a budget line.
type Category string

const (
	CategoryPersonnel     Category = "personnel"
	CategoryOperating     Category = "operating"
	CategoryMiscellaneous Category = "miscellaneous"
)

// BudgetItem is one approved spending line. Items are defined when the
// project is approved and are never mutated by aggregation.
type BudgetItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	TotalPrice int64    `json:"totalPrice"`
}

// Contact identifies an external counterpart of a project.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// KeyResult is a leaf of the project's planning tree.
type KeyResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Objective groups key results under a vision.
type Objective struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	KeyResults []KeyResult `json:"keyResults,omitempty"`
}

// Vision is the root of the planning tree. Reports reference it as a lookup
// table; the core never mutates it.
type Vision struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Objectives []Objective `json:"objectives,omitempty"`
}

// Project is a funded community project under execution tracking.
type Project struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	Name              string         `json:"name"`
	UnitID            string         `json:"unitId"`
	UnitName          string         `json:"unitName,omitempty"`
	Commissioner      Contact        `json:"commissioner"`
	Liaison           Contact        `json:"liaison"`
	AssignedCoaches   []string       `json:"assignedCoaches,omitempty"`
	AssignedOperators []string       `json:"assignedOperators,omitempty"`
	ApprovedAmount    int64          `json:"approvedAmount"`
	AppliedAmount     int64          `json:"appliedAmount"`
	Spent             int64          `json:"spent"`
	BudgetItems       []BudgetItem   `json:"budgetItems"`
	Grants            []grants.Stage `json:"grants"`
	Visions           []Vision       `json:"visions,omitempty"`
	NextReportSeq     int            `json:"nextReportSeq"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// BudgetItemByID looks up a budget line.
func (p Project) BudgetItemByID(id string) (BudgetItem, bool) {
	for _, item := range p.BudgetItems {
		if item.ID == id {
			return item, true
		}
	}
	return BudgetItem{}, false
}

// PersonnelLimit is the per-report ceiling on personnel-category spend.
func (p Project) PersonnelLimit() int64 {
	return int64(float64(p.ApprovedAmount) * PersonnelCeilingRate)
}

// StagesMerged returns the project's grant stages reconciled with the
// current stage templates. Stored data may predate a template revision or
// miss stages entirely; the merge synthesizes what is absent.
func (p Project) StagesMerged() []grants.Stage {
	return grants.MergeWithTemplate(p.Grants)
}
