package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"invitide/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and wraps failures as invalid input.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// DecodeJSON reads the request body into dst and validates it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidInput, err)
	}
	return Validate(dst)
}
