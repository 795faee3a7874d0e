package spec

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// keyOrder remembers declaration order that the decoded object model loses:
// path keys and the scheme names inside each security requirement.
type keyOrder struct {
	paths        []string
	rootSecurity [][]string
	opSecurity   map[string][][]string // keyed by "get /pets"
}

func opKey(method HttpMethod, path string) string {
	return strings.ToLower(string(method)) + " " + path
}

// indexKeyOrder walks the raw document as a yaml.Node tree. JSON input is
// valid YAML flow syntax, so both encodings share this path. On any parse
// problem the index is empty and callers fall back to sorted order.
func indexKeyOrder(raw []byte) keyOrder {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return keyOrder{}
	}
	doc := deref(&root)
	if doc == nil || doc.Kind != yaml.MappingNode {
		return keyOrder{}
	}

	ko := keyOrder{opSecurity: map[string][][]string{}}
	ko.rootSecurity = requirementOrder(mappingValue(doc, "security"))

	paths := mappingValue(doc, "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return ko
	}
	for i := 0; i+1 < len(paths.Content); i += 2 {
		p := paths.Content[i].Value
		ko.paths = append(ko.paths, p)
		item := deref(paths.Content[i+1])
		if item == nil || item.Kind != yaml.MappingNode {
			continue
		}
		for _, m := range SupportedMethods {
			op := mappingValue(item, strings.ToLower(string(m)))
			if op == nil || op.Kind != yaml.MappingNode {
				continue
			}
			if sec := requirementOrder(mappingValue(op, "security")); len(sec) > 0 {
				ko.opSecurity[opKey(m, p)] = sec
			}
		}
	}
	return ko
}

// orderedPaths returns the document's path keys in declaration order.
// Keys the index does not know about follow in sorted order.
func (ko keyOrder) orderedPaths(keys []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, p := range ko.paths {
		if present[p] && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []string
	for _, k := range keys {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func requirementOrder(seq *yaml.Node) [][]string {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([][]string, 0, len(seq.Content))
	for _, n := range seq.Content {
		n = deref(n)
		var names []string
		if n != nil && n.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(n.Content); i += 2 {
				names = append(names, n.Content[i].Value)
			}
		}
		out = append(out, names)
	}
	return out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}
