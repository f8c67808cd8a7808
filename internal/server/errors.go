package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medportal/medassist/internal/docstore"
	"github.com/medportal/medassist/internal/flow"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Messages shown to end users for remote failures. The underlying cause is
// logged, not returned.
const (
	msgUnavailable = "The assistant is temporarily unavailable. Please try again in a moment."
	msgBadAnswer   = "The assistant returned an answer that could not be used. Please try again."
)

// StatusFor maps a flow error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownFlow), errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrInvalidInput), errors.Is(err, flow.ErrTemplate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, flow.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, flow.ErrMalformedResponse), errors.Is(err, flow.ErrSchemaMismatch):
		return http.StatusBadGateway
	case errors.Is(err, docstore.ErrInvalidFilter):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorDetail(err error) ErrorDetail {
	d := ErrorDetail{Kind: flow.KindOf(err), Message: err.Error()}

	var fe *flow.Error
	if errors.As(err, &fe) {
		d.Path = fe.Path
	}

	switch {
	case errors.Is(err, flow.ErrModelUnavailable):
		d.Message = msgUnavailable
		d.Retryable = true
	case errors.Is(err, flow.ErrMalformedResponse), errors.Is(err, flow.ErrSchemaMismatch):
		d.Message = msgBadAnswer
		d.Retryable = true
	case StatusFor(err) == http.StatusInternalServerError:
		d.Message = http.StatusText(http.StatusInternalServerError)
	}
	return d
}

// errorHandler renders every error as an ErrorBody.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusFor(err)
	detail := errorDetail(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = ErrorDetail{Message: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			detail.Message = msg
		}
	}
	detail.RequestID = requestID(c)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorBody{Error: detail})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("write error response")
	}
}
