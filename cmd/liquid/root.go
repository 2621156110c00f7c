package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "liquid",
	Short: "Build LR parsers from grammar definition files",
	Long: `liquid builds an LR(1) or LALR(1) parser from a grammar definition and
either describes the resulting automaton or parses input with it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}
