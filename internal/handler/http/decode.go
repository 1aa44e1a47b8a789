package http

import (
	"errors"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// decodeBody decodes, normalizes and validates a JSON body. Validation
// failures pass through so the client sees per-field messages; anything else
// (malformed JSON, oversized body) becomes a plain 400.
func decodeBody(r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return err
	}
	return apperrors.InvalidInput("invalid request body")
}
