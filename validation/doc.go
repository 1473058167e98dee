// Package validation validates request and config structs with
// go-playground/validator and reports failures as AppErrors.
//
//	type ChatRequest struct {
//	    Question string `json:"question" validate:"max=4000"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
package validation
