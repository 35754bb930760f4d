package output

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML using the same field names as JSON.
type YAMLFormatter struct {
	structured
}

// NewYAMLFormatter creates a new YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{structured{marshal: marshalYAML}}
}

// marshalYAML goes through JSON so json tags and embedded structs apply,
// then re-emits the document in block style with key order preserved.
func marshalYAML(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return ""
	}
	clearStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return ""
	}
	return string(out)
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
