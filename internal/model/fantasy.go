package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"charm.land/fantasy"
	fantasyschema "charm.land/fantasy/schema"
)

const structuredSystemPrompt = "You are a careful medical information assistant. " +
	"Answer only with JSON that matches the required structure. " +
	"Do not invent fields and do not wrap the JSON in prose."

// Fantasy answers requests with a Fantasy language model using structured
// object generation.
type Fantasy struct {
	lm      fantasy.LanguageModel
	modelID string
}

// NewFantasy wraps a Fantasy language model.
func NewFantasy(lm fantasy.LanguageModel, modelID string) *Fantasy {
	return &Fantasy{lm: lm, modelID: modelID}
}

// Generate implements Model.
func (m *Fantasy) Generate(ctx context.Context, req Request) (*Response, error) {
	var files []fantasy.FilePart
	for _, a := range req.Attachments {
		files = append(files, fantasy.FilePart{
			Filename:  a.Name,
			Data:      a.Data,
			MediaType: a.MediaType,
		})
	}

	name := req.Flow
	description := ""
	if req.Schema != nil {
		if req.Schema.Name != "" {
			name = req.Schema.Name
		}
		description = req.Schema.Description
	}

	call := fantasy.ObjectCall{
		Prompt: fantasy.Prompt{
			fantasy.NewSystemMessage(structuredSystemPrompt),
			fantasy.NewUserMessage(req.Prompt, files...),
		},
		SchemaName:        name,
		SchemaDescription: description,
	}
	if req.Schema != nil {
		call.Schema = req.Schema.JSONSchema()
	}

	resp, err := m.lm.GenerateObject(ctx, call)
	if err != nil {
		if raw, ok := rejectedObject(err); ok {
			return &Response{Raw: []byte(raw), Model: m.modelID}, nil
		}
		return nil, fmt.Errorf("generate object: %w", err)
	}

	raw, err := json.Marshal(resp.Object)
	if err != nil {
		return nil, fmt.Errorf("marshal object: %w", err)
	}
	return &Response{Raw: raw, Model: m.modelID}, nil
}

// rejectedObject returns the answer text of a model reply that Fantasy
// could not parse or that failed its own schema check. The reply still came
// back from the model, so the caller's parse and validation steps classify
// it instead of treating it as an unavailable model.
func rejectedObject(err error) (string, bool) {
	var nog *fantasy.NoObjectGeneratedError
	if errors.As(err, &nog) {
		return nog.RawText, true
	}
	var perr *fantasyschema.ParseError
	if errors.As(err, &perr) {
		return perr.RawText, true
	}
	return "", false
}
