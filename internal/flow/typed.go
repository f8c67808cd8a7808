package flow

import (
	"context"
	"encoding/json"
	"fmt"
)

// Typed invokes one flow with Go values on both sides. Values travel through
// JSON, so struct tags name the schema fields.
type Typed[In, Out any] struct {
	exec *Executor
	name string
}

// Bind returns a typed handle for the named flow. The name is resolved at
// invoke time.
func Bind[In, Out any](exec *Executor, name string) *Typed[In, Out] {
	return &Typed[In, Out]{exec: exec, name: name}
}

// Name returns the bound flow name.
func (t *Typed[In, Out]) Name() string {
	return t.name
}

// Invoke runs the flow with in and decodes the validated output.
func (t *Typed[In, Out]) Invoke(ctx context.Context, in In) (Out, error) {
	var out Out

	input, err := toMap(in)
	if err != nil {
		return out, &Error{Kind: ErrInvalidInput, Flow: t.name, Err: err}
	}

	result, err := t.exec.Invoke(ctx, t.name, input)
	if err != nil {
		return out, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return out, &Error{Kind: ErrSchemaMismatch, Flow: t.name, Err: err}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &Error{Kind: ErrSchemaMismatch, Flow: t.name, Err: fmt.Errorf("decode output: %w", err)}
	}
	return out, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("input must encode as a JSON object: %w", err)
	}
	return m, nil
}
