package server

import (
	"errors"

	"github.com/rezonia/cfdi-processor/internal/model"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

// ParseResponse is the response for the parse endpoint
type ParseResponse struct {
	Document *model.Document `json:"document"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SummaryResponse is the response for the summary endpoint
type SummaryResponse struct {
	Summary  *model.Summary `json:"summary"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ValidationResponse is the response for the validate endpoint
type ValidationResponse struct {
	Valid  bool               `json:"valid"`
	Issues []validator.Result `json:"issues,omitempty"`
}

// InfoResponse is the response for the info endpoint
type InfoResponse struct {
	Format   string  `json:"format"`
	Size     int     `json:"size"`
	Parsed   bool    `json:"parsed"`
	Stamped  bool    `json:"stamped"`
	Concepts int     `json:"concepts"`
	UUID     *string `json:"uuid,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Entity string `json:"entity,omitempty"`
	Field  string `json:"field,omitempty"`
}

func newErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}

	var perr *model.ParseError
	if errors.As(err, &perr) {
		resp.Kind = string(perr.Kind)
		resp.Entity = perr.Entity
		resp.Field = perr.Field
	}
	return resp
}
