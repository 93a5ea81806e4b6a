package orm

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Common errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidStruct    = errors.New("invalid struct type")
	ErrNoPrimaryKey     = errors.New("no primary key defined")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrCheckConstraint  = errors.New("check constraint violation")
	ErrNotNull          = errors.New("not null constraint violation")
	ErrConnectionFailed = errors.New("database connection failed")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
	ErrSerialization    = errors.New("could not serialize transaction")
)

// PostgreSQL SQLSTATE codes the ORM understands
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Table      string // Table involved
	Err        error  // Underlying error
	Constraint string // Constraint name (if applicable)
	Column     string // Column name (if applicable)
	Retryable  bool
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("orm: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("constraint=%s", e.Constraint))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParsePostgreSQLError converts driver errors to ORM errors
func ParsePostgreSQLError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Table: table, Err: ErrNotFound}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		constraint := pqErr.Constraint
		if constraint == "" {
			constraint = extractConstraintName(pqErr.Message)
		}
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return &Error{Op: op, Table: table, Err: ErrDuplicateKey, Constraint: constraint}
		case codeForeignKeyViolation:
			return &Error{Op: op, Table: table, Err: ErrForeignKey, Constraint: constraint}
		case codeNotNullViolation:
			column := pqErr.Column
			if column == "" {
				column = extractColumnName(pqErr.Message)
			}
			return &Error{Op: op, Table: table, Err: ErrNotNull, Column: column}
		case codeCheckViolation:
			return &Error{Op: op, Table: table, Err: ErrCheckConstraint, Constraint: constraint}
		case codeSerialization, codeDeadlock:
			return &Error{Op: op, Table: table, Err: ErrSerialization, Retryable: true}
		}
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "duplicate key value violates unique constraint"):
		return &Error{Op: op, Table: table, Err: ErrDuplicateKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates foreign key constraint"):
		return &Error{Op: op, Table: table, Err: ErrForeignKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates not-null constraint"):
		return &Error{Op: op, Table: table, Err: ErrNotNull, Column: extractColumnName(errStr)}
	case strings.Contains(errStr, "violates check constraint"):
		return &Error{Op: op, Table: table, Err: ErrCheckConstraint, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "context deadline exceeded"):
		return &Error{Op: op, Table: table, Err: ErrTimeout, Retryable: true}
	case strings.Contains(errStr, "context canceled"):
		return &Error{Op: op, Table: table, Err: ErrCanceled}
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "broken pipe"):
		return &Error{Op: op, Table: table, Err: ErrConnectionFailed, Retryable: true}
	}

	return &Error{Op: op, Table: table, Err: err}
}

func extractConstraintName(errStr string) string {
	idx := strings.LastIndex(errStr, "constraint \"")
	if idx == -1 {
		return ""
	}
	start := idx + len("constraint \"")
	end := strings.Index(errStr[start:], "\"")
	if end == -1 {
		return ""
	}
	return errStr[start : start+end]
}

func extractColumnName(errStr string) string {
	columnIdx := strings.Index(errStr, "column \"")
	if columnIdx == -1 {
		return ""
	}
	start := columnIdx + len("column \"")
	end := strings.Index(errStr[start:], "\"")
	if end == -1 {
		return ""
	}
	return errStr[start : start+end]
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Retryable
	}
	return false
}

// IsConstraintError checks if an error is a constraint violation
func IsConstraintError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrForeignKey) ||
		errors.Is(err, ErrCheckConstraint) ||
		errors.Is(err, ErrNotNull)
}

// GetConstraintName extracts the constraint name from an error
func GetConstraintName(err error) string {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Constraint
	}
	return ""
}
