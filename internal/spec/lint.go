package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/loads"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// maxWarnings caps how many lint findings are reported per document.
const maxWarnings = 20

// lint collects schema violations as warnings. A document that was loaded
// and dereferenced is never rejected here: minor violations are common in
// published specs and the guide can usually still be produced.
func lint(ctx context.Context, doc *Document, raw []byte) []string {
	var findings []string
	switch doc.Version {
	case 3:
		if doc.OpenAPI != nil {
			if err := doc.OpenAPI.Validate(ctx); err != nil {
				findings = append(findings, describeFinding(err))
			}
		}
	case 2:
		findings = lintSwagger2(raw)
	}
	if len(findings) > maxWarnings {
		extra := len(findings) - maxWarnings
		findings = append(findings[:maxWarnings], fmt.Sprintf("lint: %d more findings omitted", extra))
	}
	return findings
}

func lintSwagger2(raw []byte) []string {
	data, err := yamlToJSON(raw)
	if err != nil {
		return []string{fmt.Sprintf("lint: %v", err)}
	}
	analyzed, err := loads.Analyzed(json.RawMessage(data), "")
	if err != nil {
		return []string{fmt.Sprintf("lint: %v", err)}
	}
	err = validate.Spec(analyzed, strfmt.Default)
	if err == nil {
		return nil
	}
	var composite *oaerrors.CompositeError
	if !errors.As(err, &composite) {
		return []string{describeFinding(err)}
	}
	out := make([]string, 0, len(composite.Errors))
	for _, e := range composite.Errors {
		out = append(out, describeFinding(e))
	}
	sort.Strings(out)
	return out
}

func describeFinding(err error) string {
	msg := "lint: " + err.Error()
	if ptr := extractJSONPointer(err); ptr != "" {
		msg += " (at " + ptr + ")"
	}
	return msg
}
