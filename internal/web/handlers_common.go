package web

// handlers_common.go contains request parsing helpers shared across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Paging defaults for list endpoints.
const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// listResponse is the envelope for paged listings.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// parseIntParam parses an integer query parameter with a default value.
// Values below floor are rejected.
func parseIntParam(r *http.Request, name string, defaultVal, floor int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < floor {
		return 0, badRequest(fmt.Sprintf("%s must be an integer >= %d", name, floor))
	}
	return i, nil
}

// parsePaging reads limit and offset, capping limit at maxPageSize.
func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit, err = parseIntParam(r, "limit", defaultPageSize, 1)
	if err != nil {
		return 0, 0, err
	}
	offset, err = parseIntParam(r, "offset", 0, 0)
	if err != nil {
		return 0, 0, err
	}
	return min(limit, maxPageSize), offset, nil
}

// pathInt parses a positive integer URL parameter.
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 1 {
		return 0, badRequest(fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return i, nil
}

// decodeJSON reads a single JSON value from the request body.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest(fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		}
		if errors.Is(err, io.EOF) {
			return badRequest("body is empty")
		}
		return badRequest("invalid JSON: " + err.Error())
	}
	if dec.More() {
		return badRequest("body must contain a single JSON value")
	}
	return nil
}
