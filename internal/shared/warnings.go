package shared

import "fmt"

// Warning codes surfaced alongside successful operations. None of these
// block a write; the caller decides how loudly to present them.
const (
	WarnOverBudget            = "over_budget"
	WarnPersonnelNearLimit    = "personnel_near_limit"
	WarnPersonnelLimitExceed  = "personnel_limit_exceeded"
	WarnMissingRemark         = "missing_remark"
	WarnUnknownBudgetItem     = "unknown_budget_item"
)

// Warning is a non-fatal advisory returned with an otherwise successful result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warningf builds a Warning with a formatted message.
func Warningf(code, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
