package main

import (
	"fmt"
	"os"

	"symgrep/internal/cliformat"
	"symgrep/internal/config"
	"symgrep/internal/engine"
	"symgrep/internal/index"
	"symgrep/internal/model"
	"symgrep/internal/version"

	"github.com/spf13/cobra"
)

var (
	indexPaths     []string
	indexIncludes  []string
	indexExcludes  []string
	indexLanguage  string
	indexBackend   string
	indexPath      string
	indexFormat    string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh an on-disk symbol index",
	Long: `Index walks the given paths, parses every matching file, and
writes (or refreshes) a symbol index backend (spec §4.5) that later
searches and follows can consult with --use-index instead of
re-parsing the tree on every call.

Examples:
  symgrep index --path . --backend file
  symgrep index --path . --backend sqlite --index-path .symgrep/index.sqlite`,
	Run: runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVar(&indexPaths, "path", []string{"."}, "root path to index (repeatable)")
	indexCmd.Flags().StringSliceVar(&indexIncludes, "include", nil, "glob of files to include (repeatable)")
	indexCmd.Flags().StringSliceVar(&indexExcludes, "exclude", nil, "glob of files to exclude (repeatable)")
	indexCmd.Flags().StringVar(&indexLanguage, "language", "", "restrict indexing to a single language backend id")
	indexCmd.Flags().StringVar(&indexBackend, "backend", "", "index backend: file or sqlite")
	indexCmd.Flags().StringVar(&indexPath, "index-path", "", "index location")
	indexCmd.Flags().StringVar(&indexFormat, "format", "human", "output format: json or human")
	rootCmd.AddCommand(indexCmd)

	infoCmd.Flags().StringVar(&indexBackend, "backend", "", "index backend: file or sqlite")
	infoCmd.Flags().StringVar(&indexPath, "index-path", "", "index location")
	infoCmd.Flags().StringVar(&indexFormat, "format", "human", "output format: json or human")
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "index-info",
	Short: "Show summary information for an existing index",
	Run:   runIndexInfo,
}

func resolveIndexConfig(repoRoot string, cfg *config.Config, roots, includes, excludes []string, language string) index.Config {
	backendName := config.ResolveString(indexBackend, "SYMGREP_BACKEND", cfg.DefaultBackend, "file")
	path := config.ResolveString(indexPath, "SYMGREP_INDEX_PATH", cfg.DefaultIndexPath, ".symgrep")
	return index.Config{
		Backend:     model.IndexBackendKind(backendName),
		IndexPath:   path,
		Roots:       roots,
		Includes:    includes,
		Excludes:    excludes,
		Language:    language,
		ToolVersion: version.Version,
	}
}

func runIndex(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger(indexFormat)
	cfg := loadEffectiveConfig(repoRoot, logger)

	idxCfg := resolveIndexConfig(repoRoot, cfg, indexPaths, indexIncludes, indexExcludes, indexLanguage)

	summary, err := engine.RunIndex(sharedRegistry(), idxCfg)
	if err != nil {
		failf("Error: %v", err)
	}

	output, err := cliformat.RenderIndexSummary(summary, cliformat.Format(indexFormat))
	if err != nil {
		failf("Error formatting output: %v", err)
	}
	fmt.Fprintln(os.Stdout, output)
}

func runIndexInfo(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger(indexFormat)
	cfg := loadEffectiveConfig(repoRoot, logger)

	idxCfg := resolveIndexConfig(repoRoot, cfg, nil, nil, nil, "")

	summary, err := engine.GetIndexInfo(idxCfg)
	if err != nil {
		failf("Error: %v", err)
	}

	output, err := cliformat.RenderIndexSummary(summary, cliformat.Format(indexFormat))
	if err != nil {
		failf("Error formatting output: %v", err)
	}
	fmt.Fprintln(os.Stdout, output)
}
