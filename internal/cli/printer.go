package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/rank"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// Printer writes command results to stdout. Headings are highlighted only
// when stdout is a terminal and NO_COLOR is unset.
type Printer struct {
	out   io.Writer
	color bool
}

func NewPrinter(out io.Writer) *Printer {
	color := false
	if f, ok := out.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, color: color}
}

func (p *Printer) bold(s string) string {
	if !p.color {
		return s
	}
	return ansiBold + s + ansiReset
}

func (p *Printer) dim(s string) string {
	if !p.color {
		return s
	}
	return ansiDim + s + ansiReset
}

func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Guide prints a guide as plain text sections.
func (p *Printer) Guide(g *guide.Guide) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", p.bold(g.Spec.Title), p.dim("v"+g.Spec.Version))
	fmt.Fprintf(&b, "Base URL: %s\n", g.BaseURL)
	fmt.Fprintf(&b, "Endpoint: %s %s", p.bold(string(g.Endpoint.Method)), g.Endpoint.Path)
	if g.Endpoint.Summary != "" {
		fmt.Fprintf(&b, "  %s", p.dim(g.Endpoint.Summary))
	}
	b.WriteString("\n")

	if g.Auth != nil {
		fmt.Fprintf(&b, "\n%s\n", p.bold(fmt.Sprintf("== Authentication (%s) ==", g.Auth.SchemeName)))
		b.WriteString(strings.Join(g.Auth.Instructions, "\n"))
		b.WriteString("\n")
	}
	for _, s := range g.Snippets {
		fmt.Fprintf(&b, "\n%s\n%s\n", p.bold(fmt.Sprintf("== %s ==", s.Format)), s.Code)
	}
	if len(g.Alternatives) > 0 {
		fmt.Fprintf(&b, "\n%s\n", p.bold("Other endpoints to try:"))
		for _, alt := range g.Alternatives {
			line := fmt.Sprintf("  %-6s %s", alt.Method, alt.Path)
			if alt.Summary != "" {
				line += "  " + p.dim(alt.Summary)
			}
			b.WriteString(line + "\n")
		}
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

// Ranking prints scored endpoints as a table, best first.
func (p *Printer) Ranking(scored []rank.Scored) error {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tMETHOD\tPATH\tSUMMARY")
	for _, s := range scored {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Score, s.Endpoint.Method, s.Endpoint.Path, s.Endpoint.Summary)
	}
	return tw.Flush()
}

// Summaries prints stored guides as a table.
func (p *Printer) Summaries(list []guide.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(p.out, "No saved guides.")
		return err
	}
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tAPI\tENDPOINT\tVIEWS\tCREATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Slug, s.APIName, s.Endpoint, s.ViewCount, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
