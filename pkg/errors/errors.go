package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors identifying the broad class of an AppError.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
	ErrUnavailable  = errors.New("service unavailable")
)

// AppError represents an application error with enough context to render
// the {"message": ...} body the data-API surface and the admin endpoints
// both use.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap wraps an error with additional context.
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{Err: err, Code: code, Message: message, StatusCode: statusCode}
}

// WithDetails attaches structured details to an AppError.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Generic constructors kept from the teacher's taxonomy.

func NotFound(resource string) *AppError {
	return &AppError{Err: ErrNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", resource), StatusCode: http.StatusNotFound}
}

func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Code: "UNAUTHORIZED", Message: message, StatusCode: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Code: "FORBIDDEN", Message: message, StatusCode: http.StatusForbidden}
}

func BadRequest(message string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "BAD_REQUEST", Message: message, StatusCode: http.StatusBadRequest}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Code: "CONFLICT", Message: message, StatusCode: http.StatusConflict}
}

func Internal(message string) *AppError {
	return &AppError{Err: ErrInternal, Code: "INTERNAL_ERROR", Message: message, StatusCode: http.StatusInternalServerError}
}

func Validation(details map[string]string) *AppError {
	return &AppError{Err: ErrValidation, Code: "VALIDATION_ERROR", Message: "validation failed", StatusCode: http.StatusBadRequest, Details: details}
}

// Unavailable signals a dependency outage: the identity RPC breaker is open
// or the remote call itself failed. §7 maps this to 503.
func Unavailable(message string) *AppError {
	return &AppError{Err: ErrUnavailable, Code: "SERVICE_UNAVAILABLE", Message: message, StatusCode: http.StatusServiceUnavailable}
}

// Authorization-pipeline taxonomy, spec.md §7.

// MissingAuthentication — no Authorization header on the request.
func MissingAuthentication() *AppError {
	return Unauthorized("missing authorization header")
}

// InvalidAuthentication — Authorization header present but not `Bearer <token>`.
func InvalidAuthentication(message string) *AppError {
	return Unauthorized(message)
}

// InvalidToken — the identity service rejected the bearer token.
func InvalidToken(message string) *AppError {
	return Unauthorized(message)
}

// TenantNotOwned — the caller is not a recorded owner of the tenant.
func TenantNotOwned() *AppError {
	return Forbidden("tenant not owned by caller")
}

// TableNotAllowed — the table is not exposed, or the action is disabled for it.
func TableNotAllowed(table string) *AppError {
	return &AppError{Err: ErrForbidden, Code: "TABLE_NOT_ALLOWED", Message: fmt.Sprintf("table %q is not accessible for this action", table), StatusCode: http.StatusForbidden}
}

// NonEditableColumn — a write payload names a column outside the writable set.
func NonEditableColumn(column string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "NON_EDITABLE_COLUMN", Message: fmt.Sprintf("column %q is not editable", column), StatusCode: http.StatusBadRequest}
}

// AccessDenied — the ACL decision engine returned deny.
func AccessDenied(reason string) *AppError {
	return &AppError{Err: ErrForbidden, Code: "ACCESS_DENIED", Message: reason, StatusCode: http.StatusForbidden}
}

// TableNotFound — schema introspection found no such table.
func TableNotFound(table string) *AppError {
	return &AppError{Err: ErrNotFound, Code: "TABLE_NOT_FOUND", Message: fmt.Sprintf("table %q not found", table), StatusCode: http.StatusNotFound}
}

// RecordNotFound — no row matched the requested primary key.
func RecordNotFound() *AppError {
	return &AppError{Err: ErrNotFound, Code: "RECORD_NOT_FOUND", Message: "record not found", StatusCode: http.StatusNotFound}
}

// TenantDatabaseNotFound — the admin catalog has no active entry for the tenant.
func TenantDatabaseNotFound() *AppError {
	return &AppError{Err: ErrNotFound, Code: "TENANT_DATABASE_NOT_FOUND", Message: "tenant database not found", StatusCode: http.StatusNotFound}
}

// PayloadTooLarge — the serialized request body exceeds the 64 KiB cap.
func PayloadTooLarge() *AppError {
	return &AppError{Err: ErrBadRequest, Code: "PAYLOAD_TOO_LARGE", Message: "payload exceeds maximum size of 64 KiB", StatusCode: http.StatusBadRequest}
}

// InvalidPayload — the payload is not a JSON object, or fails a structural check.
func InvalidPayload(message string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "INVALID_PAYLOAD", Message: message, StatusCode: http.StatusBadRequest}
}

// InvalidQueryParameters — list parameters (limit/offset/order_dir/...) are malformed.
func InvalidQueryParameters(message string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "INVALID_QUERY_PARAMETERS", Message: message, StatusCode: http.StatusBadRequest}
}

// InvalidIdentifier — a schema/table/column identifier fails the
// `[a-z][a-z0-9_]*` shape check.
func InvalidIdentifier(kind, value string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "INVALID_IDENTIFIER", Message: fmt.Sprintf("invalid %s identifier: %q", kind, value), StatusCode: http.StatusBadRequest}
}

// InvalidPolicyTemplate — the named policy template does not exist.
func InvalidPolicyTemplate(name string) *AppError {
	return &AppError{Err: ErrBadRequest, Code: "INVALID_POLICY_TEMPLATE", Message: fmt.Sprintf("unknown policy template %q", name), StatusCode: http.StatusBadRequest}
}

// Is checks if the error matches a target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type.
func As(err error, target any) bool {
	return errors.As(err, target)
}
