package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response
type errorBody struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// errorResponse returns a formatted error response
func errorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	if statusCode >= http.StatusInternalServerError {
		logrus.Error(errorMsg)
	} else {
		logrus.Debug(errorMsg)
	}
	writeJSON(w, statusCode, errorBody{
		Status:    "error",
		Error:     errorMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
