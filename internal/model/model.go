// Package model provides the generative model endpoints that answer flows.
//
// A Model receives a rendered prompt plus the output schema as a
// response-shape constraint and returns the raw structured response. It does
// not validate the response; that is the flow executor's job.
package model

import (
	"context"

	"github.com/medportal/medassist/internal/schema"
)

// Attachment is binary content sent alongside the prompt, such as a
// prescription photo.
type Attachment struct {
	Name      string // input field the attachment came from
	MediaType string
	Data      []byte
}

// Request is a single structured-generation call.
type Request struct {
	Flow        string
	Prompt      string
	Schema      *schema.Schema // desired response shape
	Attachments []Attachment
}

// Response is the unparsed model answer.
type Response struct {
	Raw   []byte
	Model string
}

// Model is a generative model endpoint.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Func adapts an ordinary function to the Model interface.
type Func func(ctx context.Context, req Request) (*Response, error)

// Generate calls f(ctx, req).
func (f Func) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
