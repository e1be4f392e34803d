package oneview

import (
	"fmt"
)

// Resource is a OneView JSON document. Its schema belongs to OneView, so fields are
// read through the typed accessors below instead of being assumed present.
type Resource map[string]any

// FieldError reports a field that is absent or not of the expected JSON type.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("oneview resource field %q: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &FieldError{Field: field, Reason: "missing"}
}

func malformed(field string, want string, got any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}

func (r Resource) lookup(field string) (any, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, missing(field)
	}
	return v, nil
}

// String returns a string field.
func (r Resource) String(field string) (string, error) {
	v, err := r.lookup(field)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(field, "string", v)
	}
	return s, nil
}

// StringOr returns a string field, or def when it is missing or not a string.
func (r Resource) StringOr(field, def string) string {
	s, err := r.String(field)
	if err != nil {
		return def
	}
	return s
}

// Number returns a numeric field. encoding/json decodes every JSON number as float64.
func (r Resource) Number(field string) (float64, error) {
	v, err := r.lookup(field)
	if err != nil {
		return 0, err
	}
	n, ok := v.(float64)
	if !ok {
		return 0, malformed(field, "number", v)
	}
	return n, nil
}

// Object returns a nested object field.
func (r Resource) Object(field string) (Resource, error) {
	v, err := r.lookup(field)
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case map[string]any:
		return Resource(m), nil
	case Resource:
		return m, nil
	default:
		return nil, malformed(field, "object", v)
	}
}

// Objects returns an array field whose elements are all objects.
func (r Resource) Objects(field string) ([]Resource, error) {
	v, err := r.lookup(field)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, malformed(field, "array", v)
	}
	out := make([]Resource, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("%s[%d]", field, i), "object", item)
		}
		out = append(out, Resource(m))
	}
	return out, nil
}
