package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/catinrage/liquid/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:     "parse",
		Short:   "Parse a source file and print its syntax tree",
		Example: `  liquid parse grammar.toml source.txt
  cat source.txt | liquid parse grammar.toml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runParse,
	}
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	config, err := loadGrammarConfig(args[0])
	if err != nil {
		return err
	}
	gram, err := config.buildGrammar()
	if err != nil {
		return err
	}
	opts, err := config.parserOptions()
	if err != nil {
		return err
	}

	parser, err := driver.New(gram, opts...)
	if err != nil {
		return err
	}

	var src []byte
	if len(args) == 2 {
		src, err = os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("cannot open the source file %v: %w", args[1], err)
		}
	} else {
		src, err = io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
	}

	result, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	if node, ok := result.(*driver.Node); ok {
		node.Dump(os.Stdout)
		return nil
	}
	fmt.Println(result)
	return nil
}
