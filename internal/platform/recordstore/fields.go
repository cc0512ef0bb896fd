// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recordstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// # Field Readers
//
// Records decoded from JSON carry float64, bool, string, []any and map[string]any
// values. Records built in Go may carry concrete slices instead. The readers
// accept both and return the zero value for anything else.

// String returns the field as a string.
func (fields Fields) String(name string) string {
	value, _ := fields[name].(string)
	return value
}

// Bool returns the field as a bool. A missing field is false.
func (fields Fields) Bool(name string) bool {
	value, _ := fields[name].(bool)
	return value
}

// Float returns the field as a float64, accepting any numeric type.
func (fields Fields) Float(name string) float64 {
	switch value := fields[name].(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case json.Number:
		parsed, _ := value.Float64()
		return parsed
	}
	return 0
}

// Strings returns the field as a string slice, e.g. a lookup of tag names.
func (fields Fields) Strings(name string) []string {
	switch value := fields[name].(type) {
	case []string:
		return append([]string(nil), value...)
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	case string:
		return []string{value}
	}
	return nil
}

// Lookup unwraps a reverse-lookup field, which arrives as a single-element array.
// A plain string is returned unchanged.
func (fields Fields) Lookup(name string) string {
	values := fields.Strings(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// AttachmentURL returns image[0].thumbnails.<size>.url for an attachment field.
// The "full" size falls back to the attachment's own url when no thumbnail exists.
func (fields Fields) AttachmentURL(name, size string) string {
	attachment := firstObject(fields[name])
	if attachment == nil {
		return ""
	}

	if thumbnails, ok := attachment["thumbnails"].(map[string]any); ok {
		if variant, ok := thumbnails[size].(map[string]any); ok {
			if url, ok := variant["url"].(string); ok {
				return url
			}
		}
	}

	if size == "full" {
		url, _ := attachment["url"].(string)
		return url
	}
	return ""
}

// Text renders a field the way an equality filter compares it.
func (fields Fields) Text(name string) (string, bool) {
	return textOf(fields[name])
}

// Project returns a copy containing only names. An empty list copies everything.
func (fields Fields) Project(names []string) Fields {
	if len(names) == 0 {
		return fields.Clone()
	}

	projected := make(Fields, len(names))
	for _, name := range names {
		if value, ok := fields[name]; ok {
			projected[name] = value
		}
	}
	return projected
}

// Clone returns a shallow copy.
func (fields Fields) Clone() Fields {
	clone := make(Fields, len(fields))
	for key, value := range fields {
		clone[key] = value
	}
	return clone
}

// Normalize round-trips fields through JSON so Go-built values read the same
// as values decoded from a backend.
func Normalize(fields Fields) (Fields, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("recordstore: encode fields: %w", err)
	}

	normalized := Fields{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("recordstore: decode fields: %w", err)
	}
	return normalized, nil
}

func firstObject(value any) map[string]any {
	switch typed := value.(type) {
	case []any:
		if len(typed) > 0 {
			object, _ := typed[0].(map[string]any)
			return object
		}
	case []map[string]any:
		if len(typed) > 0 {
			return typed[0]
		}
	case map[string]any:
		return typed
	}
	return nil
}

// textOf mirrors how PostgreSQL's ->> operator renders JSON scalars.
func textOf(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), true
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
