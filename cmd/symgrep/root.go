package main

import (
	"symgrep/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "symgrep",
	Short: "symgrep - code-aware search across text and symbols",
	Long: `symgrep blends grep-like text scanning with AST-derived symbol
queries across multiple languages, with an optional on-disk index for
repeated lookups on large trees.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("symgrep version {{.Version}}\n")
}
