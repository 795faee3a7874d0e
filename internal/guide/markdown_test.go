package guide

import (
	"strings"
	"testing"

	"github.com/mark3labs/runway/internal/snippet"
	"github.com/mark3labs/runway/internal/spec"
)

func TestMarkdown_WithAuth(t *testing.T) {
	t.Parallel()
	g := build(t, WithFormats(snippet.Curl))
	got, err := Markdown(g)
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	want := strings.Join([]string{
		"# Pet API Quick Start",
		"",
		"> Generated by Runway",
		"",
		"## API Info",
		"",
		"- **Version:** 1.2.0",
		"- **Base URL:** https://api.pets.io/v1",
		"",
		"## Step 1: Set up authentication",
		"",
		"```bash",
		"# Get your access token from the provider",
		`export BEARERAUTH_TOKEN="your-access-token-here"`,
		"",
		"# The token will be sent as: Authorization: Bearer <token>",
		"```",
		"",
		"## Step 2: Make your first request",
		"",
		"**GET** `/health`",
		"",
		"Health check",
		"",
		"### curl",
		"",
		"```bash",
		`curl -X GET "https://api.pets.io/v1/health" \`,
		`  -H "Authorization: Bearer $BEARERAUTH_TOKEN"`,
		"```",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected markdown:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdown_NoAuthNoSummary(t *testing.T) {
	t.Parallel()
	s := &spec.Spec{
		Title:     "Open",
		Version:   "0.1",
		Servers:   []spec.Server{{URL: "https://open.io"}},
		Endpoints: []spec.Endpoint{{Path: "/ping", Method: spec.GET}},
	}
	g, err := FromSpec(s, WithFormats(snippet.Fetch))
	if err != nil {
		t.Fatalf("from spec: %v", err)
	}
	got, _ := Markdown(g)
	if strings.Contains(got, "authentication") {
		t.Fatalf("unexpected auth section:\n%s", got)
	}
	if !strings.Contains(got, "## Step 1: Make your first request\n\n**GET** `/ping`\n\n### fetch\n\n```javascript\n") {
		t.Fatalf("unexpected request section:\n%s", got)
	}
	if strings.HasSuffix(got, "\n\n") {
		t.Fatalf("trailing blank lines:\n%q", got)
	}
}

func TestMarkdown_Nil(t *testing.T) {
	t.Parallel()
	if _, err := Markdown(nil); err == nil {
		t.Fatalf("expected error")
	}
}
