package main

import (
	"fmt"
	"os"

	"symgrep/internal/cliformat"
	"symgrep/internal/config"
	"symgrep/internal/engine"
	"symgrep/internal/model"

	"github.com/spf13/cobra"
)

var (
	searchPaths     []string
	searchIncludes  []string
	searchExcludes  []string
	searchLanguage  string
	searchMode      string
	searchLiteral   bool
	searchLimit     int
	searchMaxLines  int
	searchContext   string
	searchUseIndex  bool
	searchBackend   string
	searchIndexPath string
	searchFormat    string
)

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search text and symbols across a codebase",
	Long: `Search combines a grep-like text scan with AST-derived symbol
queries. The pattern may be a plain substring/regexless term or a
fielded query (name:, kind:, language:, file:, content:, comment:,
keyword:, description:, calls:, called-by:). Whitespace-separated terms
are combined with AND; "|"-separated alternatives are combined with OR.

Examples:
  symgrep search "TODO"
  symgrep search "name:Parse kind:function" --mode symbol --language go
  symgrep search "content:retry kind:function" --context def`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchPaths, "path", []string{"."}, "root path to search (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchIncludes, "include", nil, "glob of files to include (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchExcludes, "exclude", nil, "glob of files to exclude (repeatable)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict to a language backend id (e.g. go, python)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "auto", "search mode: text, symbol, or auto")
	searchCmd.Flags().BoolVar(&searchLiteral, "literal", false, "match the pattern as a literal identifier, not a substring")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "cap the number of results (0 = unlimited)")
	searchCmd.Flags().IntVar(&searchMaxLines, "max-lines", -1, "snippet line count; 0 omits snippets entirely")
	searchCmd.Flags().StringVar(&searchContext, "context", "none", "comma-separated context views to materialize: none or any of meta, decl, def, parent, comment, matches")
	searchCmd.Flags().BoolVar(&searchUseIndex, "use-index", false, "consult an on-disk index instead of a live parse")
	searchCmd.Flags().StringVar(&searchBackend, "backend", "", "index backend: file or sqlite")
	searchCmd.Flags().StringVar(&searchIndexPath, "index-path", "", "index location")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "output format: json or human")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger(searchFormat)
	cfg := loadEffectiveConfig(repoRoot, logger)

	mode := config.ResolveString(searchMode, "SYMGREP_MODE", cfg.DefaultMode, "auto")
	backendName := config.ResolveString(searchBackend, "SYMGREP_BACKEND", cfg.DefaultBackend, "file")
	indexPath := config.ResolveString(searchIndexPath, "SYMGREP_INDEX_PATH", cfg.DefaultIndexPath, ".symgrep")

	var maxLines *int
	if cmd.Flags().Changed("max-lines") {
		v := searchMaxLines
		maxLines = &v
	}

	var indexOpts *engine.IndexOptions
	if searchUseIndex {
		indexOpts = &engine.IndexOptions{
			Backend:   model.IndexBackendKind(backendName),
			IndexPath: indexPath,
		}
	}

	contextReq, err := engine.ParseContextRequest(searchContext)
	if err != nil {
		failf("Error: %v", err)
	}

	result, err := engine.RunSearch(sharedRegistry(), engine.Config{
		Pattern:  args[0],
		Paths:    searchPaths,
		Includes: searchIncludes,
		Excludes: searchExcludes,
		Language: searchLanguage,
		Mode:     engine.Mode(mode),
		Literal:  searchLiteral,
		Context:  contextReq,
		Limit:    searchLimit,
		MaxLines: maxLines,
		Index:    indexOpts,
	})
	if err != nil {
		failf("Error: %v", err)
	}

	output, err := cliformat.RenderSearchResult(result, cliformat.Format(searchFormat))
	if err != nil {
		failf("Error formatting output: %v", err)
	}
	fmt.Fprintln(os.Stdout, output)
}
