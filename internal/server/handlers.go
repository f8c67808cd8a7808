package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	fantasyschema "charm.land/fantasy/schema"
	"github.com/labstack/echo/v4"

	"github.com/medportal/medassist/internal/docstore"
	"github.com/medportal/medassist/internal/flow"
)

// FlowSummary is one entry of the flow listing.
type FlowSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Source      string `json:"source"`
}

// FlowDetail describes a flow and its schemas.
type FlowDetail struct {
	FlowSummary
	Input  fantasyschema.Schema `json:"input"`
	Output fantasyschema.Schema `json:"output"`
}

// InvokeResponse is the result of a successful invocation.
type InvokeResponse struct {
	InvocationID string         `json:"invocationId"`
	Flow         string         `json:"flow"`
	Output       map[string]any `json:"output"`
	Model        string         `json:"model,omitempty"`
	Attempts     int            `json:"attempts"`
	DurationMs   int64          `json:"durationMs"`
}

// QueryResponse wraps a list of records.
type QueryResponse struct {
	Collection string              `json:"collection"`
	Records    []docstore.Document `json:"records"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"flows":  len(s.exec.Registry().Names()),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func summarize(def flow.Definition) FlowSummary {
	return FlowSummary{
		Name:        def.Name,
		Description: def.Description,
		Version:     def.Version,
		Source:      string(def.Source),
	}
}

func (s *Server) listFlows(c echo.Context) error {
	defs := s.exec.Registry().Definitions()
	out := make([]FlowSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, summarize(def))
	}
	return c.JSON(http.StatusOK, map[string]any{"flows": out})
}

func (s *Server) getFlow(c echo.Context) error {
	name := c.Param("name")
	def, ok := s.exec.Registry().Lookup(name)
	if !ok {
		return &flow.Error{Kind: flow.ErrUnknownFlow, Flow: name}
	}
	return c.JSON(http.StatusOK, FlowDetail{
		FlowSummary: summarize(def),
		Input:       def.Input.JSONSchema(),
		Output:      def.Output.JSONSchema(),
	})
}

func (s *Server) invokeFlow(c echo.Context) error {
	name := c.Param("name")

	input, err := decodeObject(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return &flow.Error{Kind: flow.ErrInvalidInput, Flow: name, Err: err}
	}

	inv, err := s.exec.Run(c.Request().Context(), name, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, InvokeResponse{
		InvocationID: inv.ID,
		Flow:         inv.Flow,
		Output:       inv.Output,
		Model:        inv.Model,
		Attempts:     inv.Attempts,
		DurationMs:   inv.Duration.Milliseconds(),
	})
}

// decodeObject reads a JSON object body. An empty body is an empty object.
func decodeObject(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

func (s *Server) listCollections(c echo.Context) error {
	names, err := s.records.Collections(c.Request().Context())
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"collections": names})
}

func (s *Server) getRecord(c echo.Context) error {
	doc, err := s.records.Get(c.Request().Context(), c.Param("collection"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) queryRecords(c echo.Context) error {
	collection := c.Param("collection")

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	filter := docstore.Filter{Field: c.QueryParam("field"), Value: c.QueryParam("value")}
	docs, err := s.records.Query(c.Request().Context(), collection, filter, limit)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	return c.JSON(http.StatusOK, QueryResponse{Collection: collection, Records: docs})
}
