package main

import (
	"fmt"
	"os"

	"symgrep/internal/cliformat"
	"symgrep/internal/config"
	"symgrep/internal/engine"
	"symgrep/internal/follow"
	"symgrep/internal/model"

	"github.com/spf13/cobra"
)

var (
	followPaths       []string
	followIncludes    []string
	followExcludes    []string
	followLanguage    string
	followLiteral     bool
	followDirection   string
	followLimit       int
	followContext     int
	followUseIndex    bool
	followBackend     string
	followIndexPath   string
	followFormat      string
)

var followCmd = &cobra.Command{
	Use:   "follow <pattern>",
	Short: "Show the caller/callee neighborhood of matched symbols",
	Long: `Follow runs a symbol search and projects each matched symbol's
call edges into a caller/callee neighborhood, grouped by the edge's
(name, file, kind) triple.

Examples:
  symgrep follow "name:Parse" --direction both
  symgrep follow "name:HandleRequest" --direction callers --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runFollow,
}

func init() {
	followCmd.Flags().StringSliceVar(&followPaths, "path", []string{"."}, "root path to search (repeatable)")
	followCmd.Flags().StringSliceVar(&followIncludes, "include", nil, "glob of files to include (repeatable)")
	followCmd.Flags().StringSliceVar(&followExcludes, "exclude", nil, "glob of files to exclude (repeatable)")
	followCmd.Flags().StringVar(&followLanguage, "language", "", "restrict to a language backend id")
	followCmd.Flags().BoolVar(&followLiteral, "literal", false, "match the pattern as a literal identifier")
	followCmd.Flags().StringVar(&followDirection, "direction", "both", "callers, callees, or both")
	followCmd.Flags().IntVar(&followLimit, "limit", 0, "cap the number of targets (0 = unlimited)")
	followCmd.Flags().IntVar(&followContext, "context", -1, "lines of source context around each call site in human output (-1 disables)")
	followCmd.Flags().BoolVar(&followUseIndex, "use-index", false, "consult an on-disk index instead of a live parse")
	followCmd.Flags().StringVar(&followBackend, "backend", "", "index backend: file or sqlite")
	followCmd.Flags().StringVar(&followIndexPath, "index-path", "", "index location")
	followCmd.Flags().StringVar(&followFormat, "format", "human", "output format: json or human")
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger(followFormat)
	cfg := loadEffectiveConfig(repoRoot, logger)

	backendName := config.ResolveString(followBackend, "SYMGREP_BACKEND", cfg.DefaultBackend, "file")
	indexPath := config.ResolveString(followIndexPath, "SYMGREP_INDEX_PATH", cfg.DefaultIndexPath, ".symgrep")

	direction := model.FollowDirection(followDirection)
	switch direction {
	case model.DirectionCallers, model.DirectionCallees, model.DirectionBoth:
	default:
		failf("Error: --direction must be one of callers, callees, both")
	}

	var indexOpts *engine.IndexOptions
	if followUseIndex {
		indexOpts = &engine.IndexOptions{
			Backend:   model.IndexBackendKind(backendName),
			IndexPath: indexPath,
		}
	}

	result, err := follow.RunFollow(sharedRegistry(), follow.Config{
		Pattern:   args[0],
		Paths:     followPaths,
		Includes:  followIncludes,
		Excludes:  followExcludes,
		Language:  followLanguage,
		Literal:   followLiteral,
		Direction: direction,
		Limit:     followLimit,
		Index:     indexOpts,
	})
	if err != nil {
		failf("Error: %v", err)
	}

	output, err := cliformat.RenderFollowResult(result, followContext, cliformat.Format(followFormat))
	if err != nil {
		failf("Error formatting output: %v", err)
	}
	fmt.Fprintln(os.Stdout, output)
}
