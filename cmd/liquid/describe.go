package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/catinrage/liquid/lr"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Print the automaton, table, and conflicts of a grammar",
		Example: `  liquid describe grammar.toml`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	config, err := loadGrammarConfig(args[0])
	if err != nil {
		return err
	}
	gram, err := config.buildGrammar()
	if err != nil {
		return err
	}

	for _, finding := range gram.Inspect() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", finding)
	}

	class, favor, err := config.classAndFavor()
	if err != nil {
		return err
	}
	automaton, err := lr.NewAutomaton(gram, class)
	if err != nil {
		return err
	}

	builder := lr.NewTableBuilder(automaton, favor)
	table, err := builder.Build()
	if err != nil {
		return err
	}

	builder.WriteDescription(os.Stdout, table)
	return nil
}
