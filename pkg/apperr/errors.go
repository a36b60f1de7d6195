package apperr

import (
	"fmt"
	"net/http"
)

// AppError is the contract every typed error in this repository satisfies.
// Handlers use HTTPStatus and Category to shape the response; Fields carries
// the extra context the API contract exposes alongside the message
// (stock issues, missing fields, current status).
type AppError interface {
	Error() string
	Category() string
	HTTPStatus() int
	Fields() map[string]interface{}
	Unwrap() error
}

// --- Authentication / authorization ---

// UnauthorizedError: no verified subject on the request.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string                  { return e.Msg }
func (e *UnauthorizedError) Category() string               { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int                { return http.StatusUnauthorized }
func (e *UnauthorizedError) Fields() map[string]interface{} { return nil }
func (e *UnauthorizedError) Unwrap() error                  { return nil }

func NewUnauthorized(msg string) *UnauthorizedError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError: authenticated, but missing a required group.
type ForbiddenError struct {
	Msg    string
	Groups []string // groups the caller actually has, echoed for diagnostics
}

func (e *ForbiddenError) Error() string    { return e.Msg }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden }
func (e *ForbiddenError) Fields() map[string]interface{} {
	if len(e.Groups) == 0 {
		return nil
	}
	return map[string]interface{}{"userGroups": e.Groups}
}
func (e *ForbiddenError) Unwrap() error { return nil }

func NewForbidden(msg string, groups []string) *ForbiddenError {
	return &ForbiddenError{Msg: msg, Groups: groups}
}

// --- Client input ---

// ValidationError: malformed, missing or out-of-range input.
type ValidationError struct {
	Msg    string
	Extras map[string]interface{}
}

func (e *ValidationError) Error() string                  { return e.Msg }
func (e *ValidationError) Category() string               { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int                { return http.StatusBadRequest }
func (e *ValidationError) Fields() map[string]interface{} { return e.Extras }
func (e *ValidationError) Unwrap() error                  { return nil }

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// NewValidationWithFields attaches contract fields such as missingFields or
// providedPrice to the error payload.
func NewValidationWithFields(msg string, fields map[string]interface{}) *ValidationError {
	return &ValidationError{Msg: msg, Extras: fields}
}

// NotFoundError: a referenced resource is absent.
type NotFoundError struct {
	Msg    string
	Extras map[string]interface{}
}

func (e *NotFoundError) Error() string                  { return e.Msg }
func (e *NotFoundError) Category() string               { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int                { return http.StatusNotFound }
func (e *NotFoundError) Fields() map[string]interface{} { return e.Extras }
func (e *NotFoundError) Unwrap() error                  { return nil }

func NewNotFound(msg string) *NotFoundError {
	return &NotFoundError{Msg: msg}
}

func NewNotFoundWithFields(msg string, fields map[string]interface{}) *NotFoundError {
	return &NotFoundError{Msg: msg, Extras: fields}
}

// --- Business rules ---

// ConflictError: a duplicate resource (product id taken, review already
// submitted). Always 409; business-rule violations use StockConflictError or
// InvalidStateError instead, which map to 400.
type ConflictError struct {
	Msg    string
	Extras map[string]interface{}
}

func (e *ConflictError) Error() string                  { return e.Msg }
func (e *ConflictError) Category() string               { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int                { return http.StatusConflict }
func (e *ConflictError) Fields() map[string]interface{} { return e.Extras }
func (e *ConflictError) Unwrap() error                  { return nil }

func NewConflict(msg string) *ConflictError {
	return &ConflictError{Msg: msg}
}

func NewConflictWithFields(msg string, fields map[string]interface{}) *ConflictError {
	return &ConflictError{Msg: msg, Extras: fields}
}

// StockIssue describes one product that blocks an order operation.
type StockIssue struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName,omitempty"`
	Issue             string `json:"issue"`
	RequestedQuantity int    `json:"requestedQuantity,omitempty"`
	AvailableStock    int    `json:"availableStock,omitempty"`
}

// StockConflictError: one or more lines are short on stock or reference a
// deleted product. The whole operation is rejected; Issues lists every
// offending line, not just the first.
type StockConflictError struct {
	Msg    string
	Issues []StockIssue
}

func (e *StockConflictError) Error() string    { return e.Msg }
func (e *StockConflictError) Category() string { return "STOCK_CONFLICT" }
func (e *StockConflictError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *StockConflictError) Fields() map[string]interface{} {
	return map[string]interface{}{"stockIssues": e.Issues}
}
func (e *StockConflictError) Unwrap() error { return nil }

func NewStockConflict(msg string, issues []StockIssue) *StockConflictError {
	return &StockConflictError{Msg: msg, Issues: issues}
}

// InvalidStateError: a lifecycle precondition failed (completing a
// non-pending order, cancelling an already-cancelled sale).
type InvalidStateError struct {
	Msg           string
	CurrentStatus string
}

func (e *InvalidStateError) Error() string    { return e.Msg }
func (e *InvalidStateError) Category() string { return "INVALID_STATE" }
func (e *InvalidStateError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InvalidStateError) Fields() map[string]interface{} {
	if e.CurrentStatus == "" {
		return nil
	}
	return map[string]interface{}{"currentStatus": e.CurrentStatus}
}
func (e *InvalidStateError) Unwrap() error { return nil }

func NewInvalidState(msg, currentStatus string) *InvalidStateError {
	return &InvalidStateError{Msg: msg, CurrentStatus: currentStatus}
}

// --- Infrastructure ---

// InternalError: unexpected store or IO failure. The underlying message is
// surfaced in the body; this backend serves an internal admin tool.
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
	}
	return e.Msg
}
func (e *InternalError) Category() string               { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int                { return http.StatusInternalServerError }
func (e *InternalError) Fields() map[string]interface{} { return nil }
func (e *InternalError) Unwrap() error                  { return e.Err }

func NewInternal(msg string, err error) *InternalError {
	return &InternalError{Msg: msg, Err: err}
}
