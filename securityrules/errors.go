package securityrules

import "errors"

// Error codes carried by failures from this package. Callers should branch
// on these rather than on message text.
const (
	CodeInvalidArgument       = "security-rules/invalid-argument"
	CodeNotFound              = "security-rules/not-found"
	CodeFailedPrecondition    = "security-rules/failed-precondition"
	CodeResourceExhausted     = "security-rules/resource-exhausted"
	CodeInternalError         = "security-rules/internal-error"
	CodeServiceUnavailable    = "security-rules/service-unavailable"
	CodeInvalidServerResponse = "security-rules/invalid-server-response"
	CodeUnknownError          = "security-rules/unknown-error"
)

// Error is the failure type returned by every operation in this package.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// IsInvalidArgument reports whether err is an invalid-argument failure, such
// as a malformed identifier or rules source that failed validation.
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

// IsNotFound reports whether err is a not-found failure for a well-formed
// identifier that references nothing.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsFailedPrecondition reports whether err failed because the resource is in
// a state that forbids the operation, such as deleting a ruleset a release
// still points at.
func IsFailedPrecondition(err error) bool {
	return hasCode(err, CodeFailedPrecondition)
}

// IsResourceExhausted reports whether err is a quota failure.
func IsResourceExhausted(err error) bool {
	return hasCode(err, CodeResourceExhausted)
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
