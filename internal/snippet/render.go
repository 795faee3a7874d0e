package snippet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const continuation = " \\\n"

func renderCurl(r request) string {
	u := r.url
	if name, ok := r.queryAuth(); ok {
		u = appendQuery(u, name, "$"+r.plan.EnvVar)
	}
	lines := []string{fmt.Sprintf(`curl -X %s "%s"`, r.method, u)}
	if r.headerAuth() {
		lines = append(lines, fmt.Sprintf(`  -H "%s: %s"`, r.plan.HeaderName(), r.plan.ShellValue()))
	}
	if r.mutating {
		lines = append(lines, `  -H "Content-Type: application/json"`)
		if r.hasBody {
			lines = append(lines, "  -d '"+shellQuoteBody(toJSON(r.body, "  "))+"'")
		}
	}
	return strings.Join(lines, continuation)
}

// shellQuoteBody makes text safe inside a single-quoted shell word.
func shellQuoteBody(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

func renderFetch(r request) string {
	u := r.url
	if name, ok := r.queryAuth(); ok {
		u = appendQuery(u, name, jsEnv(r.plan.EnvVar))
	}

	type header struct{ name, value string }
	var headers []header
	if r.headerAuth() {
		headers = append(headers, header{r.plan.HeaderName(), "`" + r.plan.ValueTemplate(jsEnv(r.plan.EnvVar)) + "`"})
	}
	if r.mutating {
		headers = append(headers, header{"Content-Type", "'application/json'"})
	}

	var opts []string
	if r.method != "GET" {
		opts = append(opts, fmt.Sprintf("  method: '%s'", r.method))
	}
	if len(headers) > 0 {
		lines := make([]string, len(headers))
		for i, h := range headers {
			lines[i] = fmt.Sprintf("    '%s': %s", h.name, h.value)
		}
		opts = append(opts, "  headers: {\n"+strings.Join(lines, ",\n")+"\n  }")
	}
	if r.mutating && r.hasBody {
		opts = append(opts, "  body: JSON.stringify("+toJSON(r.body, "    ")+")")
	}

	target := jsString(u)
	if len(opts) == 0 {
		return fmt.Sprintf("const response = await fetch(%s)\nconst data = await response.json()\nconsole.log(data)", target)
	}
	return fmt.Sprintf("const response = await fetch(%s, {\n%s\n})\n\nconst data = await response.json()\nconsole.log(data)",
		target, strings.Join(opts, ",\n"))
}

func jsEnv(name string) string { return "${process.env." + name + "}" }

// jsString quotes s as a JavaScript string, switching to a template
// literal when it interpolates an environment variable.
func jsString(s string) string {
	if strings.Contains(s, "${") {
		return "`" + strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s) + "`"
	}
	return "'" + strings.NewReplacer("\\", "\\\\", "'", "\\'").Replace(s) + "'"
}

func renderPython(r request) string {
	lines := []string{"import requests", "import os", ""}

	var headers []string
	if r.headerAuth() {
		headers = append(headers, fmt.Sprintf("    %q: %s", r.plan.HeaderName(), pyEnvValue(r.plan.ValueTemplate("{"+pyEnv(r.plan.EnvVar)+"}"), r.plan.EnvVar)))
	}
	if r.mutating {
		headers = append(headers, `    "Content-Type": "application/json"`)
	}
	if len(headers) > 0 {
		lines = append(lines, "headers = {", strings.Join(headers, ",\n"), "}", "")
	}

	name, hasQuery := r.queryAuth()
	if hasQuery {
		lines = append(lines, "params = {", fmt.Sprintf("    %q: %s", name, pyEnv(r.plan.EnvVar)), "}", "")
	}

	method := strings.ToLower(string(r.method))
	var kwargs []string
	if len(headers) > 0 {
		kwargs = append(kwargs, "headers=headers")
	}
	if hasQuery {
		kwargs = append(kwargs, "params=params")
	}

	if r.mutating && r.hasBody {
		lines = append(lines, "data = "+pyLiteral(r.body, ""), "")
		lines = append(lines, fmt.Sprintf("response = requests.%s(", method), fmt.Sprintf("    %s,", strconv.Quote(r.url)))
		for _, kw := range kwargs {
			lines = append(lines, "    "+kw+",")
		}
		lines = append(lines, "    json=data", ")")
	} else {
		args := append([]string{strconv.Quote(r.url)}, kwargs...)
		lines = append(lines, fmt.Sprintf("response = requests.%s(%s)", method, strings.Join(args, ", ")))
	}

	lines = append(lines, "", "print(response.json())")
	return strings.Join(lines, "\n")
}

func pyEnv(name string) string { return fmt.Sprintf("os.environ['%s']", name) }

// pyEnvValue returns the bare environment lookup when the template is
// nothing but the secret, else an f-string around it.
func pyEnvValue(template, env string) string {
	bare := "{" + pyEnv(env) + "}"
	if template == bare {
		return pyEnv(env)
	}
	return `f"` + template + `"`
}

// toJSON pretty-prints v with the given indent, leaving HTML characters
// unescaped.
func toJSON(v any, indent string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// pyLiteral renders a decoded JSON value as a Python literal with four
// space indentation.
func pyLiteral(v any, indent string) string {
	inner := indent + "    "
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return toJSON(t, "")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case map[string]any:
		if len(t) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = inner + toJSON(k, "") + ": " + pyLiteral(t[k], inner)
		}
		return "{\n" + strings.Join(parts, ",\n") + "\n" + indent + "}"
	case []any:
		if len(t) == 0 {
			return "[]"
		}
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = inner + pyLiteral(e, inner)
		}
		return "[\n" + strings.Join(parts, ",\n") + "\n" + indent + "]"
	}
	// Other Go types are normalized through JSON first.
	var decoded any
	if err := json.Unmarshal([]byte(toJSON(v, "")), &decoded); err != nil {
		return "None"
	}
	return pyLiteral(decoded, indent)
}
