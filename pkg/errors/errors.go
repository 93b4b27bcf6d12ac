package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeUnavailable         Code = "UNAVAILABLE"
	CodeInsufficientBattery Code = "INSUFFICIENT_BATTERY"
	CodeInvalidOrderState   Code = "INVALID_ORDER_STATE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeUnknownPhase        Code = "UNKNOWN_PHASE"
	CodeDevice              Code = "DEVICE_ERROR"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is exposed to API clients.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
}

var codeMetadata = map[Code]Metadata{
	CodeValidation:          {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid input"},
	CodeUnauthorized:        {HTTPStatus: http.StatusUnauthorized, PublicMessage: "unauthorized"},
	CodeForbidden:           {HTTPStatus: http.StatusForbidden, PublicMessage: "forbidden"},
	CodeNotFound:            {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeConflict:            {HTTPStatus: http.StatusConflict, PublicMessage: "resource already exists"},
	CodeUnavailable:         {HTTPStatus: http.StatusConflict, PublicMessage: "robot unavailable"},
	CodeInsufficientBattery: {HTTPStatus: http.StatusConflict, PublicMessage: "insufficient battery"},
	CodeInvalidOrderState:   {HTTPStatus: http.StatusConflict, PublicMessage: "invalid order state"},
	CodeInvalidTransition:   {HTTPStatus: http.StatusConflict, PublicMessage: "invalid status transition"},
	CodeUnknownPhase:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "unknown phase"},
	CodeDevice:              {HTTPStatus: http.StatusBadGateway, Retryable: true, PublicMessage: "device unreachable"},
	CodeInternal:            {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
}

// MetadataFor returns the metadata registered for code, defaulting to INTERNAL_ERROR.
func MetadataFor(code Code) Metadata {
	if meta, ok := codeMetadata[code]; ok {
		return meta
	}
	return codeMetadata[CodeInternal]
}

type AppError struct {
	Code    Code
	Message string
	Err     error
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

func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// As extracts an AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func Validation(message string, err error) *AppError {
	return NewAppError(CodeValidation, message, err)
}

func NotFound(entity string, id fmt.Stringer) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, id), nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(CodeForbidden, message, nil)
}

func Conflict(message string, err error) *AppError {
	return NewAppError(CodeConflict, message, err)
}

func Unavailable(robotID fmt.Stringer, status string) *AppError {
	return NewAppError(CodeUnavailable, fmt.Sprintf("robot %s is not available (status %s)", robotID, status), nil)
}

func InsufficientBattery(robotID fmt.Stringer, level float64) *AppError {
	return NewAppError(CodeInsufficientBattery, fmt.Sprintf("robot %s battery %.2f%% is below dispatch floor", robotID, level), nil)
}

// InvalidOrderState names the operation that the order's status rules out.
func InvalidOrderState(orderID fmt.Stringer, status, operation string) *AppError {
	return NewAppError(CodeInvalidOrderState, fmt.Sprintf("order %s cannot be %s in status %s", orderID, operation, status), nil)
}

func InvalidTransition(from, to string) *AppError {
	return NewAppError(CodeInvalidTransition, fmt.Sprintf("Cannot transition from %s to %s", from, to), nil)
}

func UnknownPhase(token string) *AppError {
	return NewAppError(CodeUnknownPhase, fmt.Sprintf("unknown phase %q", token), nil)
}

func Device(message string, err error) *AppError {
	return NewAppError(CodeDevice, message, err)
}

func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, err)
}
