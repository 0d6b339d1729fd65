package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/validation"
)

var errNotAString = errors.New("field values must be strings, numbers or null")

// writeJSON encodes v before writing the header, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		logrus.WithError(err).Debug("failed to write response")
	}
}

// writeValidation reports field errors as 422 {"errors": {field: message}}.
func writeValidation(w http.ResponseWriter, fe validation.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"errors": fe.Messages(),
	})
}

func readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// fieldSetter is satisfied by the autosave controller and the edit overlay.
type fieldSetter interface {
	SetField(name, raw string) error
}

// readFields decodes a {"field": value} object into raw text values. Numbers
// are formatted back to text and null clears a field.
func readFields(r *http.Request) (map[string]string, error) {
	var in map[string]interface{}
	if err := readJSON(r, &in); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(in))
	for name, v := range in {
		switch val := v.(type) {
		case string:
			out[name] = val
		case float64:
			out[name] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			out[name] = ""
		default:
			return nil, fmt.Errorf("%w: %s", errNotAString, name)
		}
	}
	return out, nil
}

// applyFields sets every field in form order, so startDate lands before an
// explicit endDate. Bad names or numbers are rejected before anything is applied.
func applyFields(target fieldSetter, fields map[string]string) error {
	var scratch models.FormData
	for name, raw := range fields {
		if err := scratch.SetField(name, raw); err != nil {
			return err
		}
	}
	for _, name := range models.FieldNames {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := target.SetField(name, raw); err != nil {
			return err
		}
	}
	return nil
}

// pathID returns the path segment after prefix and any trailing action.
func pathID(path, prefix string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, action, _ = strings.Cut(rest, "/")
	return id, action
}
