// Package jsonutil provides shared helpers for the loosely-typed JSON the bridge consumes:
// LLM replies, chat exports and server lists from the environment.
package jsonutil

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec used across the module. It behaves like encoding/json.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoObject is returned by ExtractObject when the text holds no {...} span.
var ErrNoObject = errors.New("no JSON object found")

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := JSON.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// UnmarshalLineSafe decodes one JSON line into v and reports whether it
// parsed. Blank lines never do.
func UnmarshalLineSafe(line string, v interface{}) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	return JSON.Unmarshal([]byte(line), v) == nil
}

// ExtractObject returns the substring from the first '{' to the last '}'.
// Models often wrap their JSON in prose or code fences; this strips both.
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoObject
	}
	return text[start : end+1], nil
}

// GetString safely extracts a string value from a map[string]interface{}.
// Returns the value if it's a string, otherwise returns empty string.
func GetString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// GetStringOr safely extracts a string value from a map[string]interface{}
// with a default value if the key doesn't exist or isn't a string.
func GetStringOr(m map[string]interface{}, key string, defaultValue string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return defaultValue
}

// GetSlice returns m[key] when it is a JSON array, nil otherwise.
func GetSlice(m map[string]interface{}, key string) []interface{} {
	if val, ok := m[key].([]interface{}); ok {
		return val
	}
	return nil
}

// ToString converts an interface{} value to a string representation.
// Handles string, float64 (formatted as integer), bool, and other types.
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// Discord snowflakes and ports arrive as numbers; keep them integral.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
