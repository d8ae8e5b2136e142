package budget

import (
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
)

// nearLimitRate is the share of the personnel ceiling that triggers the
// early warning.
const nearLimitRate = 0.80

// Ceiling is the outcome of the personnel ceiling check for one report.
type Ceiling struct {
	Limit          int64 `json:"limit"`
	PersonnelSpent int64 `json:"personnelSpent"`
	NearLimit      bool  `json:"nearLimit"`
	Exceeded       bool  `json:"exceeded"`
}

// CheckPersonnelCeiling evaluates the 30%-of-approved-amount cap against a
// single report's personnel expenditures. The check is report-local on
// purpose: it guards one month's personnel overrun and does not accumulate
// across reports. Crossing the thresholds warns; it never blocks.
func CheckPersonnelCeiling(p domain.Project, r domain.MonthlyReport) (Ceiling, []shared.Warning) {
	c := Ceiling{Limit: p.PersonnelLimit()}
	for _, line := range r.Expenditures {
		item, ok := p.BudgetItemByID(line.BudgetItemID)
		if !ok || item.Category != domain.CategoryPersonnel {
			continue
		}
		c.PersonnelSpent += line.Amount
	}
	if c.Limit <= 0 {
		return c, nil
	}

	var warnings []shared.Warning
	switch {
	case c.PersonnelSpent > c.Limit:
		c.Exceeded = true
		warnings = append(warnings, shared.Warningf(shared.WarnPersonnelLimitExceed,
			"personnel spend %d exceeds the per-report limit %d", c.PersonnelSpent, c.Limit))
	case float64(c.PersonnelSpent) > float64(c.Limit)*nearLimitRate:
		c.NearLimit = true
		warnings = append(warnings, shared.Warningf(shared.WarnPersonnelNearLimit,
			"personnel spend %d is beyond 80%% of the per-report limit %d", c.PersonnelSpent, c.Limit))
	}
	return c, warnings
}
