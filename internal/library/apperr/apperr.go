package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// -------------- Error model & mapping --------------

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT" // 重複ISBN・在庫なし・上限超過・二重返却
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// As reports whether err carries an APIError anywhere in its chain.
func As(err error) (*APIError, bool) {
	var api *APIError
	if errors.As(err, &api) {
		return api, true
	}
	return nil, false
}

func ToHTTPStatus(err error) int {
	if api, ok := As(err); ok {
		return StatusOf(api.Code)
	}
	return http.StatusInternalServerError
}

func StatusOf(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// -------------- Outcome --------------

// Outcome is the (success, message) pair every write operation of the engine returns.
// Code is empty on success.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    Code   `json:"code,omitempty"`
}

func Succeeded(msg string) Outcome { return Outcome{Success: true, Message: msg} }

// Resolve folds a business-rule violation into a failed Outcome. Any other error is
// a system failure and is handed back untouched.
func Resolve(err error) (Outcome, error) {
	if api, ok := As(err); ok && api.Code != CodeInternal {
		return Outcome{Success: false, Message: api.Message, Code: api.Code}, nil
	}
	return Outcome{}, err
}

func (o Outcome) HTTPStatus(successStatus int) int {
	if o.Success {
		return successStatus
	}
	return StatusOf(o.Code)
}

// -------------- Error body for handlers --------------

type ErrorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func ErrorBody(code Code, msg string) ErrorDTO {
	var e ErrorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// ErrorFromErr hides the text of unexpected errors from clients.
func ErrorFromErr(err error) ErrorDTO {
	if api, ok := As(err); ok {
		return ErrorBody(api.Code, api.Message)
	}
	return ErrorBody(CodeInternal, "internal server error")
}
