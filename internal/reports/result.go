// Package reports models JUnit XML test reports: individual results, test
// cases, suites, and a streaming transform for renaming, secret redaction
// and attachment extraction.
package reports

// Status classifies the outcome of a single test execution.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusError
	StatusSkipped
)

// Result is the outcome of a test, optionally carrying a type and message
// for the report element it renders to.
type Result struct {
	status  Status
	typ     string
	message string
}

// Success returns a passing result.
func Success() Result {
	return Result{status: StatusSuccess}
}

// Failure returns a failed assertion result.
func Failure(message string) Result {
	return Result{status: StatusFailure, typ: "assertion", message: message}
}

// Error returns an unexpected-error result.
func Error(message string) Result {
	return Result{status: StatusError, typ: "error", message: message}
}

// Skipped returns a skipped result.
func Skipped(message string) Result {
	return Result{status: StatusSkipped, message: message}
}

// Status returns the outcome classification.
func (r Result) Status() Status { return r.status }

// Type returns the report element type tag ("assertion" for failures,
// "error" for errors, empty otherwise).
func (r Result) Type() string { return r.typ }

// Message returns the attached message and whether the result carries one;
// successful results never do.
func (r Result) Message() (string, bool) {
	if r.status == StatusSuccess {
		return "", false
	}
	return r.message, true
}
