package media

import "fmt"

// Code is the discriminated error taxonomy surfaced to API clients. Every
// pipeline failure maps to exactly one of these; internal errors that have no
// better home become CodeProcessingError.
type Code string

const (
	CodeSizeExceeded      Code = "SIZE_EXCEEDED"
	CodeInvalidFileType   Code = "INVALID_FILE_TYPE"
	CodeVirusFound        Code = "VIRUS_FOUND"
	CodeDuplicateDetected Code = "DUPLICATE_DETECTED"
	CodeNoFreeSlot        Code = "NO_FREE_SLOT"
	CodeSlotOccupied      Code = "SLOT_OCCUPIED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeProcessingError   Code = "PROCESSING_ERROR"
)

// Error carries a taxonomy code plus a human-readable message across the
// service boundary. Handlers serialize it as {status:"error", code, message}.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
