package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/metadata"
)

// maxBodyBytes bounds request bodies; metadata documents are small
const maxBodyBytes = 4 << 20

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorFor maps an error to a status code. A metadata DecodeError is
// returned as {error, decode_error} so clients can point at the bad field.
func writeErrorFor(w http.ResponseWriter, err error) {
	var decodeErr *metadata.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":        err.Error(),
			"decode_error": decodeErr,
		})
	case errors.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.IsInvalidRequestError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return err
	}
	return nil
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
