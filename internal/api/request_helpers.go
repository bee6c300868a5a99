package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
)

// pathParam returns a chi URL parameter. Identifier syntax is checked by
// the service, which reports malformed IDs as invalid values.
func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// decodeAndValidate decodes the JSON body into dst and validates it. On
// failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		handleDecodeError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		handleValidationError(w, r, err)
		return false
	}
	return true
}
