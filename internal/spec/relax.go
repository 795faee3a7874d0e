package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// relaxDocument rewrites the parts of a document that the typed decoder
// rejects although the document is otherwise usable:
//   - a non-string scalar info.version (YAML `version: 1.0`, JSON `1`)
//     becomes a string with the same literal text
//   - OpenAPI 3.1 type arrays such as `type: [string, "null"]` become
//     `type: string` plus `nullable: true`
//   - numeric 3.1 exclusiveMinimum/exclusiveMaximum become the boolean form
//     next to minimum/maximum
//
// It returns the re-encoded document and one note per rewrite. Without
// rewrites, or on a parse error, raw comes back unchanged.
func relaxDocument(raw []byte) ([]byte, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return raw, nil, err
	}
	doc := deref(&root)
	if doc == nil || doc.Kind != yaml.MappingNode {
		return raw, nil, nil
	}

	var notes []string
	if v := mappingValue(doc, "info"); v != nil {
		if ver := mappingValue(v, "version"); ver != nil && ver.Kind == yaml.ScalarNode && ver.Tag != "!!str" && ver.Tag != "!!null" {
			notes = append(notes, fmt.Sprintf("info.version %s is not a string, using %q", ver.Value, ver.Value))
			ver.Tag = "!!str"
			ver.Style = yaml.DoubleQuotedStyle
		}
	}
	relaxSchemas(doc, "#", &notes)

	if len(notes) == 0 {
		return raw, nil, nil
	}
	out, err := yaml.Marshal(&root)
	if err != nil {
		return raw, nil, err
	}
	return out, notes, nil
}

// literalKeys hold example data rather than schemas and are not descended.
var literalKeys = map[string]bool{
	"example":  true,
	"examples": true,
	"default":  true,
	"enum":     true,
	"const":    true,
}

func relaxSchemas(n *yaml.Node, pointer string, notes *[]string) {
	n = deref(n)
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.SequenceNode:
		for i, c := range n.Content {
			relaxSchemas(c, fmt.Sprintf("%s/%d", pointer, i), notes)
		}
	case yaml.MappingNode:
		relaxTypeArray(n, pointer, notes)
		relaxExclusiveBound(n, "exclusiveMinimum", "minimum", pointer, notes)
		relaxExclusiveBound(n, "exclusiveMaximum", "maximum", pointer, notes)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if literalKeys[key] || strings.HasPrefix(key, "x-") {
				continue
			}
			relaxSchemas(n.Content[i+1], pointer+"/"+escapePointer(key), notes)
		}
	}
}

func relaxTypeArray(n *yaml.Node, pointer string, notes *[]string) {
	idx := keyIndex(n, "type")
	if idx < 0 {
		return
	}
	seq := n.Content[idx+1]
	if seq.Kind != yaml.SequenceNode {
		return
	}
	var types []string
	nullable := false
	for _, item := range seq.Content {
		if item.Kind != yaml.ScalarNode {
			return
		}
		if item.Value == "null" {
			nullable = true
			continue
		}
		types = append(types, item.Value)
	}

	switch {
	case len(types) == 0:
		n.Content = append(n.Content[:idx], n.Content[idx+2:]...)
	default:
		n.Content[idx+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: types[0]}
	}
	if nullable {
		setMappingValue(n, "nullable", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
	}
	note := fmt.Sprintf("type list %v at %s narrowed", types, pointer+"/type")
	if len(types) > 0 {
		note += " to " + types[0]
	}
	if nullable {
		note += " (nullable)"
	}
	*notes = append(*notes, note)
}

func relaxExclusiveBound(n *yaml.Node, exclusiveKey, boundKey, pointer string, notes *[]string) {
	idx := keyIndex(n, exclusiveKey)
	if idx < 0 {
		return
	}
	v := n.Content[idx+1]
	if v.Kind != yaml.ScalarNode || (v.Tag != "!!int" && v.Tag != "!!float") {
		return
	}
	bound := &yaml.Node{Kind: yaml.ScalarNode, Tag: v.Tag, Value: v.Value}
	n.Content[idx+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"}
	setMappingValue(n, boundKey, bound)
	*notes = append(*notes, fmt.Sprintf("numeric %s at %s moved to %s", exclusiveKey, pointer, boundKey))
}

func keyIndex(n *yaml.Node, key string) int {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func setMappingValue(n *yaml.Node, key string, value *yaml.Node) {
	if i := keyIndex(n, key); i >= 0 {
		n.Content[i+1] = value
		return
	}
	n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
