package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// errInternalMessage is the only text a client sees for unexpected failures.
const errInternalMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps errors to HTTP status codes by their domain
// kind. Anything that is not a domain error is an internal failure.
func MapErrorToStatusCode(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidValue:
		return http.StatusBadRequest
	case domain.KindBusinessRule:
		if errors.Is(err, domain.ErrEmailInUse) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message a client may see for err. Domain
// messages describe the caller's own input and are passed through; every
// other error is replaced by a generic message.
func GetSafeErrorMessage(err error) string {
	var de *domain.Error
	if err != nil && errors.As(err, &de) {
		return de.Message
	}
	return errInternalMessage
}

// HandleAPIError writes the error response for a service error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), shared.ErrorResponse{
		Error: GetSafeErrorMessage(err),
		Kind:  domain.KindOf(err).String(),
	}, err)
}

// handleDecodeError writes the 400 response for a body that could not be decoded.
func handleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Invalid request format"
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		msg = "Request body must not be empty"
	case errors.As(err, &typeErr) && typeErr.Field != "":
		msg = fmt.Sprintf("Invalid %s: wrong type", typeErr.Field)
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ErrorResponse{
		Error: msg,
		Kind:  domain.KindInvalidValue.String(),
	}, err)
}

// handleValidationError writes the 400 response for a request that failed
// struct validation.
func handleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ErrorResponse{
		Error: SanitizeValidationError(err),
		Kind:  domain.KindInvalidValue.String(),
	}, err)
}

// SanitizeValidationError turns a validator error into a user-friendly
// message naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	if fe.Field() == "" {
		return "Validation error"
	}
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
