// Package budget aggregates expenditures across a project's monthly reports
// into per-budget-line running totals and evaluates the personnel ceiling.
// Everything here is pure: same inputs, same outputs, no side effects.
package budget

import (
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
)

// Breakdown holds cumulative spend grouped by budget item id. Committed and
// draft totals are kept apart so a live preview never contaminates the
// canonical number.
type Breakdown struct {
	Committed map[string]int64
	Draft     map[string]int64
	// UnknownItemIDs lists expenditure references to budget items no longer
	// on the project. These lines are skipped, not fatal.
	UnknownItemIDs []string
}

// SpentByItem sums every expenditure of the project's reports grouped by
// budget item. Reports belonging to other projects are ignored. The running
// total spans all committed reports, never just the most recent one.
func SpentByItem(p domain.Project, all []domain.MonthlyReport) Breakdown {
	b := Breakdown{
		Committed: make(map[string]int64),
		Draft:     make(map[string]int64),
	}
	seenUnknown := make(map[string]struct{})
	for _, r := range all {
		if r.ProjectID != p.ID {
			continue
		}
		target := b.Committed
		if r.Draft {
			target = b.Draft
		}
		for _, line := range r.Expenditures {
			if _, ok := p.BudgetItemByID(line.BudgetItemID); !ok {
				if _, dup := seenUnknown[line.BudgetItemID]; !dup {
					seenUnknown[line.BudgetItemID] = struct{}{}
					b.UnknownItemIDs = append(b.UnknownItemIDs, line.BudgetItemID)
				}
				continue
			}
			target[line.BudgetItemID] += line.Amount
		}
	}
	return b
}

// Remaining is the committed balance left on a budget line. Negative means
// over budget; that is surfaced as a warning, never a blocked write.
func Remaining(item domain.BudgetItem, b Breakdown) int64 {
	return item.TotalPrice - b.Committed[item.ID]
}

// TotalCommitted sums committed spend across every budget line.
func TotalCommitted(b Breakdown) int64 {
	var total int64
	for _, amount := range b.Committed {
		total += amount
	}
	return total
}

// Line is the per-budget-item view assembled for callers.
type Line struct {
	Item       domain.BudgetItem `json:"item"`
	Spent      int64               `json:"spent"`
	DraftSpent int64               `json:"draftSpent"`
	Remaining  int64               `json:"remaining"`
	OverBudget bool                `json:"overBudget"`
}

// Summary is the full budget position of a project.
type Summary struct {
	ProjectID      string  `json:"projectId"`
	Lines          []Line  `json:"lines"`
	TotalSpent     int64   `json:"totalSpent"`
	ApprovedAmount int64   `json:"approvedAmount"`
	PersonnelLimit int64   `json:"personnelLimit"`
	AnyOverBudget  bool    `json:"anyOverBudget"`
}

// Summarize builds the budget position plus integrity warnings for unknown
// budget item references.
func Summarize(p domain.Project, all []domain.MonthlyReport) (Summary, []shared.Warning) {
	b := SpentByItem(p, all)
	s := Summary{
		ProjectID:      p.ID,
		ApprovedAmount: p.ApprovedAmount,
		PersonnelLimit: p.PersonnelLimit(),
		Lines:          make([]Line, 0, len(p.BudgetItems)),
	}
	var warnings []shared.Warning
	for _, item := range p.BudgetItems {
		remaining := Remaining(item, b)
		line := Line{
			Item:       item,
			Spent:      b.Committed[item.ID],
			DraftSpent: b.Draft[item.ID],
			Remaining:  remaining,
			OverBudget: remaining < 0,
		}
		if line.OverBudget {
			s.AnyOverBudget = true
			warnings = append(warnings, shared.Warningf(shared.WarnOverBudget,
				"budget line %s is over by %d", item.Name, -remaining))
		}
		s.Lines = append(s.Lines, line)
	}
	s.TotalSpent = TotalCommitted(b)
	for _, id := range b.UnknownItemIDs {
		warnings = append(warnings, shared.Warningf(shared.WarnUnknownBudgetItem,
			"expenditures reference unknown budget item %s; skipped", id))
	}
	return s, warnings
}
