package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPolicyViolation indicates the actor is not allowed to perform the mutation.
	ErrPolicyViolation = errors.New("policy violation")
	// ErrValidation indicates a malformed payload or field value.
	ErrValidation = errors.New("validation failed")
	// ErrReportSubmitted indicates a write against an already submitted report.
	ErrReportSubmitted = errors.New("report already submitted")
	// ErrNoActor indicates a guarded operation reached without a session actor.
	ErrNoActor = errors.New("no actor in context")
)

// UserSafeMessage returns a message suitable for display to end users.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect"
	case errors.Is(err, ErrPolicyViolation):
		return "Your role does not permit this action"
	case errors.Is(err, ErrReportSubmitted):
		return "This report has already been submitted"
	default:
		return "The operation could not be completed"
	}
}
