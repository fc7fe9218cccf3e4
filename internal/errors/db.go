package errors

import "fmt"

// DBError is the base type of all store-layer errors. Op names the failed
// operation for logs.
type DBError struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	cause   error
}

func NewDBError(op, message string) *DBError {
	return &DBError{Op: op, Message: message}
}

func (e *DBError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("store.%s: %s: %v", e.Op, e.Message, e.cause)
	}
	return fmt.Sprintf("store.%s: %s", e.Op, e.Message)
}

func (e *DBError) Unwrap() error { return e.cause }

type DBInternalError struct {
	DBError
}

func NewDBInternalError(op string, cause error) *DBInternalError {
	return &DBInternalError{DBError{Op: op, Message: "internal database error", cause: cause}}
}

type DBNotFoundError struct {
	DBError
}

func NewDBNotFoundError(op, message string) *DBNotFoundError {
	return &DBNotFoundError{DBError{Op: op, Message: message}}
}

type DBUniqueViolationError struct {
	DBError
	Column string
}

type DBForeignKeyViolationError struct {
	DBError
	ForeignKeyTable string
}
