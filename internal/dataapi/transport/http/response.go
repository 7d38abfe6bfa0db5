package http

import (
	"encoding/json"
	"net/http"

	"github.com/tenantgate/tenantgate/pkg/errors"
)

// errorBody is the data-API surface's error envelope (spec.md §6 "Error
// body"), deliberately thinner than pkg/httputil's {success,data,error}
// envelope used by the health endpoint: just `{"message": string}`.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode, errorBody{Message: appErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: "an unexpected error occurred"})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.InvalidPayload("request body must be a JSON object")
	}
	return nil
}
