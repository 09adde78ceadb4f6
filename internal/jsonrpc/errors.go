package jsonrpc

import (
	"encoding/json"

	"github.com/imtaco/livecast/internal/errors"
)

const (
	ErrCodeParseError errors.Code = "parse error"
	ErrClosed         errors.Code = "closed"
)

// http://www.jsonrpc.org/specification#error_object, plus server defined codes
// for the domain kinds.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeUnauthorized = -32001
	CodeForbidden    = -32003
	CodeNotFound     = -32004
	CodeConflict     = -32009
	CodePrecondition = -32010
)

var kindCodes = map[errors.Code]int64{
	errors.ErrValidation:   CodeInvalidParams,
	errors.ErrUnauthorized: CodeUnauthorized,
	errors.ErrForbidden:    CodeForbidden,
	errors.ErrNotFound:     CodeNotFound,
	errors.ErrConflict:     CodeConflict,
	errors.ErrPrecondition: CodePrecondition,
	errors.ErrUpload:       CodeInternalError,
	errors.ErrServer:       CodeInternalError,
}

type errorData struct {
	Kind string `json:"kind"`
}

// FromError converts a handler error into a wire error. Domain kinds keep their
// client-safe message, everything else is reported as an internal error.
func FromError(err error) *Error {
	if rpcErr, ok := errors.As[*Error](err); ok {
		return rpcErr
	}
	kind := errors.KindOf(err)
	bs, _ := json.Marshal(errorData{Kind: string(kind)})
	raw := json.RawMessage(bs)
	return &Error{
		Code:    kindCodes[kind],
		Message: errors.Message(err),
		Data:    &raw,
	}
}

func ErrInvalidParams(message string) *Error {
	return &Error{
		Code:    CodeInvalidParams,
		Message: message,
	}
}

func ErrInvalidRequest(message string) *Error {
	return &Error{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

func ErrMethodNotFound(method string) *Error {
	return &Error{
		Code:    CodeMethodNotFound,
		Message: "method not found: " + method,
	}
}

func ErrInternal(message string) *Error {
	return &Error{
		Code:    CodeInternalError,
		Message: message,
	}
}
