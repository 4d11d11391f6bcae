// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "paralelogram/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorBody writes the standard error envelope.
func WriteErrorBody(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, errorBody{Error: code, ErrorDescription: description})
}

// WriteError translates err into the error envelope. Domain failures expose
// their status and fixed message; anything else is an opaque internal error.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteErrorBody(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	WriteErrorBody(w, dErrors.StatusOf(de), string(de.Kind)+"_failure", de.Message)
}
