package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// rewriteV2BodyParams fixes Swagger 2.0 operations that openapi2conv
// refuses to convert:
//   - several "in: body" parameters are merged into one object-typed body
//   - body parameters mixed with formData become formData fields, and the
//     operation consumes multipart/form-data
//
// It returns the re-encoded document and whether anything changed. On error
// the original bytes come back unchanged.
func rewriteV2BodyParams(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return data, false, nil
	}

	modified := false
	for _, pim := range paths {
		item, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range item {
			if !isV2Operation(method) {
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			if rewriteOperationParams(op) {
				modified = true
			}
		}
	}

	if !modified {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func isV2Operation(key string) bool {
	switch strings.ToLower(key) {
	case "get", "post", "put", "delete", "patch", "options", "head":
		return true
	}
	return false
}

func rewriteOperationParams(op map[string]any) bool {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return false
	}

	bodies, hasForm := 0, false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		switch {
		case pm == nil:
		case strings.EqualFold(asString(pm["in"]), "body"):
			bodies++
		case strings.EqualFold(asString(pm["in"]), "formData"):
			hasForm = true
		}
	}

	switch {
	case bodies == 0:
		return false
	case hasForm:
		rewritten := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(asString(pm["in"]), "body") {
				rewritten = append(rewritten, bodyToFormField(pm))
				continue
			}
			rewritten = append(rewritten, pm)
		}
		op["parameters"] = rewritten
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case bodies > 1:
		props := map[string]any{}
		var required []any
		rest := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil || !strings.EqualFold(asString(pm["in"]), "body") {
				rest = append(rest, p)
				continue
			}
			name := asString(pm["name"])
			if name == "" {
				name = "field"
			}
			schema := paramSchema(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if req, _ := pm["required"].(bool); req {
				required = append(required, name)
			}
		}
		body := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			body["required"] = required
		}
		merged := map[string]any{"in": "body", "name": "body", "schema": body}
		op["parameters"] = append([]any{merged}, rest...)
		return true
	}
	return false
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

// paramSchema returns the body schema, or one synthesized from the
// parameter's own type, items and format.
func paramSchema(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t, _ := pm["type"].(string)
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f, ok := pm["format"].(string); ok && f != "" {
		m["format"] = f
	}
	return m
}

func bodyToFormField(pm map[string]any) map[string]any {
	name := asString(pm["name"])
	if name == "" {
		name = "field"
	}
	out := map[string]any{"in": "formData", "name": name}
	if desc, ok := pm["description"].(string); ok && desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}

	var typ, format string
	var items any
	if sch, ok := pm["schema"].(map[string]any); ok {
		typ, _ = sch["type"].(string)
		format, _ = sch["format"].(string)
		if it, ok := sch["items"].(map[string]any); ok {
			items = it
		}
		// A referenced object has no formData form.
		if typ == "" && sch["$ref"] != nil {
			typ = "string"
		}
	}
	if typ == "" {
		typ, _ = pm["type"].(string)
		format, _ = pm["format"].(string)
		if it, ok := pm["items"].(map[string]any); ok {
			items = it
		}
	}
	if typ == "" {
		typ = "string"
	}
	out["type"] = typ
	if items != nil {
		out["items"] = items
	}
	if format != "" {
		out["format"] = format
	}
	return out
}
