package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrUnknownFlow indicates no flow is registered under the name.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrDuplicateFlowName indicates a second registration of a name.
	ErrDuplicateFlowName = errors.New("duplicate flow name")

	// ErrInvalidInput indicates the input does not match the input schema.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTemplate indicates the prompt template could not be rendered.
	ErrTemplate = errors.New("template error")

	// ErrModelUnavailable indicates the model call failed: network, quota,
	// timeout or provider error.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedResponse indicates the model answer is not parseable JSON.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrSchemaMismatch indicates the parsed answer does not match the
	// output schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

var kindNames = map[error]string{
	ErrUnknownFlow:       "UnknownFlow",
	ErrDuplicateFlowName: "DuplicateFlowName",
	ErrInvalidInput:      "InvalidInput",
	ErrTemplate:          "TemplateError",
	ErrModelUnavailable:  "ModelUnavailable",
	ErrMalformedResponse: "MalformedResponse",
	ErrSchemaMismatch:    "SchemaMismatch",
}

// Error is a flow failure of a given kind.
// It unwraps to both its Kind sentinel and the underlying cause.
type Error struct {
	Kind error  // one of the Err* sentinels
	Flow string // flow name
	Path string // offending field path, validation failures only
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("flow %s: %s", e.Flow, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind name of a flow error ("UnknownFlow",
// "InvalidInput", ...), or "" when err is not one.
func KindOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return kindNames[fe.Kind]
	}
	return ""
}

// IsRemote reports whether err originated at or after the model call.
func IsRemote(err error) bool {
	return errors.Is(err, ErrModelUnavailable) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrSchemaMismatch)
}
