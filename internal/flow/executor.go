package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/medportal/medassist/internal/model"
	"github.com/medportal/medassist/internal/prompt"
	"github.com/medportal/medassist/internal/schema"
)

// Invocation records a single successful flow call. It is not persisted.
type Invocation struct {
	ID        string
	Flow      string
	Input     map[string]any
	Prompt    string
	Raw       []byte
	Output    map[string]any
	Model     string
	Attempts  int
	StartedAt time.Time
	Duration  time.Duration
}

// Executor runs registered flows against a model endpoint.
type Executor struct {
	registry *Registry
	model    model.Model
	logger   zerolog.Logger

	timeout    time.Duration // per model call; 0 means the caller's context only
	maxRetries uint64        // extra attempts after a ModelUnavailable failure
	retryBase  time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for per-invocation events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithRetry retries ModelUnavailable failures up to maxRetries times with
// exponential backoff starting at base. Other failures are never retried.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(e *Executor) {
		e.maxRetries = maxRetries
		e.retryBase = base
	}
}

// NewExecutor creates an executor. Without options it logs nothing, applies
// no timeout of its own and makes at most one model call per invocation.
func NewExecutor(reg *Registry, m model.Model, opts ...Option) *Executor {
	e := &Executor{
		registry:  reg,
		model:     m,
		logger:    zerolog.Nop(),
		retryBase: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the executor resolves names against.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Invoke runs the named flow and returns its validated output.
func (e *Executor) Invoke(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	inv, err := e.Run(ctx, name, input)
	if err != nil {
		return nil, err
	}
	return inv.Output, nil
}

// Run runs the named flow and returns the full invocation record. On failure
// the record is discarded and only the error is returned.
func (e *Executor) Run(ctx context.Context, name string, input map[string]any) (*Invocation, error) {
	inv := &Invocation{
		ID:        uuid.NewString(),
		Flow:      name,
		Input:     input,
		StartedAt: time.Now(),
	}

	err := e.run(ctx, inv)
	inv.Duration = time.Since(inv.StartedAt)

	evt := e.logger.Info()
	if err != nil {
		evt = e.logger.Warn().Str("kind", KindOf(err)).Err(err)
	}
	evt.
		Str("flow", name).
		Str("invocation_id", inv.ID).
		Int("attempts", inv.Attempts).
		Dur("duration", inv.Duration).
		Msg("flow invocation")

	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (e *Executor) run(ctx context.Context, inv *Invocation) error {
	def, ok := e.registry.Lookup(inv.Flow)
	if !ok {
		return &Error{Kind: ErrUnknownFlow, Flow: inv.Flow}
	}

	if inv.Input == nil {
		inv.Input = map[string]any{}
	}
	if err := schema.Validate(inv.Input, def.Input); err != nil {
		return fieldError(ErrInvalidInput, def.Name, err)
	}
	if def.Check != nil {
		if err := def.Check(inv.Input); err != nil {
			return fieldError(ErrInvalidInput, def.Name, err)
		}
	}

	rendered, attachments, err := renderPrompt(def, inv.Input)
	if err != nil {
		return &Error{Kind: ErrTemplate, Flow: def.Name, Err: err}
	}
	inv.Prompt = rendered

	resp, err := e.generate(ctx, inv, model.Request{
		Flow:        def.Name,
		Prompt:      rendered,
		Schema:      def.Output,
		Attachments: attachments,
	})
	if err != nil {
		return &Error{Kind: ErrModelUnavailable, Flow: def.Name, Err: err}
	}
	inv.Raw = resp.Raw
	inv.Model = resp.Model

	parsed, err := parseResponse(resp.Raw)
	if err != nil {
		return &Error{Kind: ErrMalformedResponse, Flow: def.Name, Err: err}
	}

	if err := schema.Validate(parsed, def.Output); err != nil {
		return fieldError(ErrSchemaMismatch, def.Name, err)
	}
	inv.Output = parsed.(map[string]any)
	return nil
}

// generate performs the model call, retrying only when configured.
func (e *Executor) generate(ctx context.Context, inv *Invocation, req model.Request) (*model.Response, error) {
	call := func(ctx context.Context) (*model.Response, error) {
		inv.Attempts++
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		resp, err := e.model.Generate(ctx, req)
		if err == nil && resp == nil {
			err = errors.New("model returned no response")
		}
		return resp, err
	}

	if e.maxRetries == 0 {
		return call(ctx)
	}

	var resp *model.Response
	backoff := retry.WithMaxRetries(e.maxRetries, retry.NewExponential(e.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := call(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	return resp, err
}

// renderPrompt substitutes input fields, falling back to the definition's
// defaults, into the template. Media fields are replaced by an attachment
// reference and sent as attachments.
func renderPrompt(def Definition, input map[string]any) (string, []model.Attachment, error) {
	vars := make(map[string]any, len(input)+len(def.Defaults))
	for k, v := range def.Defaults {
		vars[k] = v
	}
	for k, v := range input {
		if v != nil {
			vars[k] = v
		}
	}

	var attachments []model.Attachment
	for _, name := range def.Input.MediaFields() {
		uri, ok := input[name].(string)
		if !ok {
			continue
		}
		mediaType, data, err := schema.ParseDataURI(uri)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", name, err)
		}
		attachments = append(attachments, model.Attachment{Name: name, MediaType: mediaType, Data: data})
		vars[name] = fmt.Sprintf("[attachment %d: %s]", len(attachments), name)
	}

	rendered, err := prompt.Render(def.Prompt, vars)
	if err != nil {
		return "", nil, err
	}
	return rendered, attachments, nil
}

// parseResponse decodes a model answer, tolerating a surrounding Markdown
// code fence.
func parseResponse(raw []byte) (any, error) {
	body := bytes.TrimSpace(raw)
	if rest, ok := bytes.CutPrefix(body, []byte("```")); ok {
		rest = bytes.TrimPrefix(rest, []byte("json"))
		rest, _ = bytes.CutSuffix(bytes.TrimSpace(rest), []byte("```"))
		body = bytes.TrimSpace(rest)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response")
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return v, nil
}

func fieldError(kind error, flowName string, err error) *Error {
	fe := &Error{Kind: kind, Flow: flowName, Err: err}
	var mm *schema.MismatchError
	if errors.As(err, &mm) {
		fe.Path = mm.Path
	}
	return fe
}
