package main

import (
	"fmt"
	"os"
	"strings"

	"symgrep/internal/cliformat"
	"symgrep/internal/config"
	"symgrep/internal/engine"
	"symgrep/internal/index"
	"symgrep/internal/model"

	"github.com/spf13/cobra"
)

var (
	attrsFile        string
	attrsLanguage    string
	attrsKind        string
	attrsName        string
	attrsStartLine   int
	attrsEndLine     int
	attrsKeywords    []string
	attrsDescription string
	attrsBackend     string
	attrsIndexPath   string
	attrsFormat      string
)

var attrsCmd = &cobra.Command{
	Use:   "update-attrs",
	Short: "Attach keywords/description metadata to one indexed symbol",
	Long: `update-attrs replaces the keywords and description attached to a
single indexed symbol, identified by an exact (file, language, kind,
name, start_line, end_line) selector. Selectors matching zero or more
than one symbol fail with an IndexError rather than silently guessing.

Example:
  symgrep update-attrs --file internal/engine/engine.go --kind function \
    --name RunSearch --start-line 27 --end-line 45 \
    --keywords dispatch,search --description "top-level search entry point"`,
	Run: runUpdateAttrs,
}

func init() {
	attrsCmd.Flags().StringVar(&attrsFile, "file", "", "file path of the target symbol (required)")
	attrsCmd.Flags().StringVar(&attrsLanguage, "language", "", "language id of the target symbol")
	attrsCmd.Flags().StringVar(&attrsKind, "kind", "", "symbol kind (required)")
	attrsCmd.Flags().StringVar(&attrsName, "name", "", "symbol name (required)")
	attrsCmd.Flags().IntVar(&attrsStartLine, "start-line", 0, "symbol range start line (required)")
	attrsCmd.Flags().IntVar(&attrsEndLine, "end-line", 0, "symbol range end line (required)")
	attrsCmd.Flags().StringSliceVar(&attrsKeywords, "keywords", nil, "replacement keyword list")
	attrsCmd.Flags().StringVar(&attrsDescription, "description", "", "replacement description")
	attrsCmd.Flags().StringVar(&attrsBackend, "backend", "", "index backend: file or sqlite")
	attrsCmd.Flags().StringVar(&attrsIndexPath, "index-path", "", "index location")
	attrsCmd.Flags().StringVar(&attrsFormat, "format", "human", "output format: json or human")
	_ = attrsCmd.MarkFlagRequired("file")
	_ = attrsCmd.MarkFlagRequired("kind")
	_ = attrsCmd.MarkFlagRequired("name")
	_ = attrsCmd.MarkFlagRequired("start-line")
	_ = attrsCmd.MarkFlagRequired("end-line")
	rootCmd.AddCommand(attrsCmd)
}

func runUpdateAttrs(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger(attrsFormat)
	cfg := loadEffectiveConfig(repoRoot, logger)

	kind, ok := model.ParseSymbolKind(strings.ToLower(attrsKind))
	if !ok {
		failf("Error: unrecognized --kind %q", attrsKind)
	}

	idxCfg := index.Config{
		Backend:   model.IndexBackendKind(config.ResolveString(attrsBackend, "SYMGREP_BACKEND", cfg.DefaultBackend, "file")),
		IndexPath: config.ResolveString(attrsIndexPath, "SYMGREP_INDEX_PATH", cfg.DefaultIndexPath, ".symgrep"),
	}

	selector := index.Selector{
		File:      attrsFile,
		Language:  attrsLanguage,
		Kind:      kind,
		Name:      attrsName,
		StartLine: attrsStartLine,
		EndLine:   attrsEndLine,
	}
	update := index.AttributesUpdate{
		Keywords:    attrsKeywords,
		Description: attrsDescription,
	}

	symbol, err := engine.UpdateSymbolAttributes(idxCfg, selector, update)
	if err != nil {
		failf("Error: %v", err)
	}

	result := &model.SearchResult{
		Version: model.SearchResultVersion,
		Query:   fmt.Sprintf("name:%s kind:%s file:%s", symbol.Name, symbol.Kind, symbol.File),
		Symbols: []model.Symbol{symbol},
	}
	output, err := cliformat.RenderSearchResult(result, cliformat.Format(attrsFormat))
	if err != nil {
		failf("Error formatting output: %v", err)
	}
	fmt.Fprintln(os.Stdout, output)
}
