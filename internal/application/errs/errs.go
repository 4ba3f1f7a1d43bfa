package errs

import "fmt"

// ValidationError marks a row missing a required field. Never retryable.
type ValidationError struct {
	Field string
}

func (t ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", t.Field)
}

type CourseNotFoundError struct {
	Code string
}

func (t CourseNotFoundError) Error() string {
	return fmt.Sprintf("course not found in platform catalog: %s", t.Code)
}

// DuplicateEnrollmentError is part of the taxonomy but unused by the
// default policy, which treats an existing identical enrollment as an
// idempotent no-op.
type DuplicateEnrollmentError struct {
	FiscalCode string
	Code       string
}

func (t DuplicateEnrollmentError) Error() string {
	return fmt.Sprintf("learner %s already enrolled in %s", t.FiscalCode, t.Code)
}

type WriteError struct {
	Err error
}

func (t WriteError) Error() string {
	return fmt.Sprintf("error writing enrollment: %v", t.Err)
}

func (t WriteError) Unwrap() error {
	return t.Err
}

// ResolutionError means the convenzione's platform identifier matched no
// known cluster. Callers treat it as a client error, not a retryable fault.
type ResolutionError struct {
	Platform string
}

func (t ResolutionError) Error() string {
	return fmt.Sprintf("no known platform for identifier: %q", t.Platform)
}

type ConfigurationError struct {
	Key string
}

func (t ConfigurationError) Error() string {
	return fmt.Sprintf("missing connection configuration: %s", t.Key)
}

type ConnectivityError struct {
	Err error
}

func (t ConnectivityError) Error() string {
	return fmt.Sprintf("error establishing connectivity: %v", t.Err)
}

func (t ConnectivityError) Unwrap() error {
	return t.Err
}
