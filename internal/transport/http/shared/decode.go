package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrPayloadTooLarge is returned by DecodeJSON when the body exceeds the
// limit installed by the body limit middleware.
var ErrPayloadTooLarge = errors.New("payload too large")

// DecodeJSON strictly decodes a single JSON object. Syntax and type errors
// are recorded on v; the returned error is non-nil only for an oversized body.
func DecodeJSON(r *http.Request, dst any, v *Validator) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		if dec.More() {
			v.Add("", "body must contain a single JSON object")
		}
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxBytesErr):
		return ErrPayloadTooLarge
	case errors.Is(err, io.EOF):
		v.Add("", "request body is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		v.Add("", "malformed JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		v.Add(field, fmt.Sprintf("must be a %s", jsonKind(typeErr.Type.Kind().String())))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		v.Add(name, "is not a recognised field")
	default:
		v.Add("", "invalid JSON payload")
	}
	return nil
}

func jsonKind(goKind string) string {
	switch goKind {
	case "float32", "float64", "int", "int64", "int32":
		return "number"
	case "struct", "map":
		return "object"
	case "slice", "array":
		return "array"
	case "bool":
		return "boolean"
	}
	return goKind
}
