package interchange

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/grantline/grantline/internal/budget"
	"github.com/grantline/grantline/internal/domain"
)

// collator orders Chinese item and document names the way a spreadsheet
// user expects, not by code point.
var collator = collate.New(language.TraditionalChinese)

// WriteBudgetCSV emits one project's budget breakdown, items sorted by name.
func WriteBudgetCSV(w io.Writer, p domain.Project, summary budget.Summary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Item", "Category", "Budget", "Spent", "Draft Spent", "Remaining"}); err != nil {
		return err
	}
	lines := make([]budget.Line, len(summary.Lines))
	copy(lines, summary.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		return collator.CompareString(lines[i].Item.Name, lines[j].Item.Name) < 0
	})
	for _, line := range lines {
		if err := writer.Write([]string{
			line.Item.Name,
			string(line.Item.Category),
			formatAmount(line.Item.TotalPrice),
			formatAmount(line.Spent),
			formatAmount(line.DraftSpent),
			formatAmount(line.Remaining),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"Total", "", formatAmount(p.ApprovedAmount), formatAmount(summary.TotalSpent), "", ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportsCSV emits the submitted monthly reports of a project, one row
// per expenditure line.
func WriteReportsCSV(w io.Writer, p domain.Project, reports []domain.MonthlyReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Report", "Month", "Item", "Source", "Amount", "Description"}); err != nil {
		return err
	}
	for _, r := range reports {
		if !r.Committed() {
			continue
		}
		for _, exp := range r.Expenditures {
			name := exp.BudgetItemID
			if item, ok := p.BudgetItemByID(exp.BudgetItemID); ok {
				name = item.Name
			}
			if err := writer.Write([]string{
				r.ID,
				r.Month,
				name,
				string(exp.Source),
				formatAmount(exp.Amount),
				exp.Description,
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatAmount(v int64) string {
	return strconv.FormatInt(v, 10)
}
