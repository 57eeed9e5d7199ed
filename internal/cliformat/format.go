// Package cliformat renders symgrep's JSON result types (spec §6) either
// as pretty-printed JSON passthrough or as a human-readable text view,
// the way cmd/symgrep's subcommands present them on a terminal.
package cliformat

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"symgrep/internal/model"
)

// Format selects how a result is rendered.
type Format string

const (
	FormatJSON  Format = "json"
	FormatHuman Format = "human"
)

// RenderSearchResult formats a SearchResult per format.
func RenderSearchResult(result *model.SearchResult, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(result)
	}
	return renderSearchHuman(result), nil
}

// RenderFollowResult formats a FollowResult per format.
func RenderFollowResult(result *model.FollowResult, contextLines int, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(result)
	}
	return renderFollowHuman(result, contextLines), nil
}

// RenderIndexSummary formats an IndexSummary per format.
func RenderIndexSummary(summary model.IndexSummary, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(summary)
	}
	return renderIndexSummaryHuman(summary), nil
}

func renderJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func renderSearchHuman(result *model.SearchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", result.Query)
	fmt.Fprintf(&b, "Matches: %d", result.Summary.TotalMatches)
	if result.Summary.Truncated {
		fmt.Fprint(&b, " (truncated)")
	}
	b.WriteString("\n\n")

	for _, m := range result.Matches {
		fmt.Fprintf(&b, "%s:%d:%d", m.Path, m.Line, m.Column)
		if m.Snippet != nil {
			fmt.Fprintf(&b, "  %s", strings.TrimRight(*m.Snippet, "\n"))
		}
		b.WriteString("\n")
	}

	for i, sym := range result.Symbols {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, sym.Name, sym.Kind, sym.Language)
		fmt.Fprintf(&b, "   %s:%d-%d\n", sym.File, sym.Range.StartLine, sym.Range.EndLine)
		if sym.Signature != "" {
			fmt.Fprintf(&b, "   %s\n", sym.Signature)
		}
	}

	for _, ctx := range result.Contexts {
		b.WriteString("\n")
		fmt.Fprintf(&b, "-- %s (%s:%d-%d) --\n", ctx.Kind, ctx.File, ctx.Range.StartLine, ctx.Range.EndLine)
		b.WriteString(ctx.Snippet)
		if !strings.HasSuffix(ctx.Snippet, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderIndexSummaryHuman(summary model.IndexSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backend: %s\n", summary.Backend)
	fmt.Fprintf(&b, "Index path: %s\n", summary.IndexPath)
	fmt.Fprintf(&b, "Files indexed: %d\n", summary.FilesIndexed)
	fmt.Fprintf(&b, "Symbols indexed: %d\n", summary.SymbolsIndexed)
	if summary.BuildID != "" {
		fmt.Fprintf(&b, "Build ID: %s\n", summary.BuildID)
	}
	if summary.RootPath != "" {
		fmt.Fprintf(&b, "Root path: %s\n", summary.RootPath)
	}
	if summary.UpdatedAt != "" {
		fmt.Fprintf(&b, "Updated at: %s\n", summary.UpdatedAt)
	}
	return b.String()
}

func renderFollowHuman(result *model.FollowResult, contextLines int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s (direction: %s)\n\n", result.Query, result.Direction)

	fileCache := map[string][]string{}

	for _, target := range result.Targets {
		fmt.Fprintf(&b, "== %s (%s) [%s:%d] ==\n", target.Symbol.Name, target.Symbol.Kind, target.Symbol.File, target.Symbol.Range.StartLine)

		if len(target.Callers) > 0 {
			b.WriteString("\nCallers:\n")
			printEdgeGroups(&b, target.Callers, contextLines, fileCache)
		}
		if len(target.Callees) > 0 {
			b.WriteString("\nCallees:\n")
			printEdgeGroups(&b, target.Callees, contextLines, fileCache)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func printEdgeGroups(b *strings.Builder, edges []model.FollowEdge, contextLines int, fileCache map[string][]string) {
	for _, edge := range edges {
		kind := "symbol"
		if edge.Symbol.Kind != nil {
			kind = *edge.Symbol.Kind
		}
		firstLine := 0
		if len(edge.CallSites) > 0 {
			firstLine = edge.CallSites[0].Line
		}
		fmt.Fprintf(b, "  %s (%s)  [%s:%d]\n", edge.Symbol.Name, kind, edge.Symbol.File, firstLine)

		if contextLines < 0 {
			continue
		}
		lines := loadFileLines(edge.Symbol.File, fileCache)
		if lines == nil {
			continue
		}
		for _, site := range edge.CallSites {
			if site.Line <= 0 || site.Line > len(lines) {
				continue
			}
			start := site.Line - contextLines
			if start < 1 {
				start = 1
			}
			end := site.Line + contextLines
			if end > len(lines) {
				end = len(lines)
			}
			for lineNo := start; lineNo <= end; lineNo++ {
				fmt.Fprintf(b, "    %d:  %s\n", lineNo, lines[lineNo-1])
			}
		}
	}
	b.WriteString("\n")
}

func loadFileLines(path string, cache map[string][]string) []string {
	if lines, ok := cache[path]; ok {
		return lines
	}
	data, err := os.ReadFile(path)
	if err != nil {
		cache[path] = nil
		return nil
	}
	lines := strings.Split(string(data), "\n")
	cache[path] = lines
	return lines
}
