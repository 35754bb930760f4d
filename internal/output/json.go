package output

import "encoding/json"

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	structured
}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{structured{marshal: marshalJSON}}
}
