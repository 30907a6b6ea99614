package apperrors

import "errors"

// Common errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Import configuration errors. These abort the whole import before any write.
var (
	ErrHeaderNotFound   = errors.New("could not detect header row")
	ErrMissingColumns   = errors.New("missing columns in spreadsheet")
	ErrWorkbookUnusable = errors.New("workbook cannot be read")
)

// Subject, supervisor and department errors
var (
	ErrSubjectNotFound       = errors.New("subject not found")
	ErrSubjectAlreadyExists  = errors.New("subject with this name, title, degree and kind already exists")
	ErrSupervisorNotFound    = errors.New("supervisor not found")
	ErrDepartmentNotFound    = errors.New("department not found")
	ErrSupervisorHasSubjects = errors.New("supervisor still has linked subjects and cannot be deleted")
)

// Fee payment errors
var (
	ErrInvalidYear            = errors.New("invalid fee year")
	ErrFeePaymentNotFound     = errors.New("fee payment not found")
	ErrFeePaymentAlreadyExist = errors.New("fee payment for this year already exists")
)

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// DetailsOf returns the details attached to the first CustomError in err's chain
func DetailsOf(err error) map[string]interface{} {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Details
	}
	return nil
}
