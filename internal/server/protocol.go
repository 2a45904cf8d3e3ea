package server

import (
	"encoding/json"
	"errors"

	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// Operation names accepted on the wire.
const (
	OpStore  = "store"
	OpRecall = "recall"
	OpBloom  = "bloom"
	OpTick   = "tick"
	OpGet    = "get"
	OpForget = "forget"
	OpList   = "list"
	OpStats  = "stats"
	OpSave   = "save"
)

// Error codes carried in Response.Error.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeShapeMismatch   = "shape_mismatch"
	CodeEvictedOnInsert = "evicted_on_insert"
	CodeUnknownOp       = "unknown_op"
	CodeInternal        = "internal"
)

// ErrUnknownOp is returned for requests naming no registered operation.
var ErrUnknownOp = errors.New("unknown operation")

// Request is one client message. ID is echoed in the matching Response.
type Request struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Request. Either Result or Error is set.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is a failed operation as seen by the client. It unwraps to the
// matching resonance sentinel so errors.Is works across the connection.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeInvalidArgument:
		return resonance.ErrInvalidArgument
	case CodeNotFound:
		return resonance.ErrNotFound
	case CodeShapeMismatch:
		return resonance.ErrShapeMismatch
	case CodeEvictedOnInsert:
		return resonance.ErrEvictedOnInsert
	case CodeUnknownOp:
		return ErrUnknownOp
	default:
		return nil
	}
}

// errorFor classifies err into a wire Error.
func errorFor(err error) *Error {
	code := CodeInternal
	switch {
	case errors.Is(err, resonance.ErrInvalidArgument):
		code = CodeInvalidArgument
	case errors.Is(err, resonance.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, resonance.ErrShapeMismatch):
		code = CodeShapeMismatch
	case errors.Is(err, resonance.ErrEvictedOnInsert):
		code = CodeEvictedOnInsert
	case errors.Is(err, ErrUnknownOp):
		code = CodeUnknownOp
	}
	return &Error{Code: code, Message: err.Error()}
}
