package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/catinrage/liquid/driver"
	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
	"github.com/catinrage/liquid/lr"
)

// grammarConfig is the TOML form of a grammar definition.
type grammarConfig struct {
	Class    string          `toml:"class"`
	Favor    string          `toml:"favor"`
	Patterns []patternConfig `toml:"patterns"`
	Rules    []ruleConfig    `toml:"rules"`
}

type patternConfig struct {
	Name       string   `toml:"name"`
	Literals   []string `toml:"literals"`
	Regexps    []string `toml:"regexps"`
	Groups     []string `toml:"groups"`
	Precedence int      `toml:"precedence"`
	Assoc      string   `toml:"assoc"`
	Ignored    bool     `toml:"ignored"`
}

type ruleConfig struct {
	LHS string `toml:"lhs"`
	RHS string `toml:"rhs"`
}

func loadGrammarConfig(path string) (*grammarConfig, error) {
	var config grammarConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("cannot load the grammar definition %v: %w", path, err)
	}
	if len(config.Rules) == 0 {
		return nil, fmt.Errorf("%v defines no rules", path)
	}
	return &config, nil
}

// buildGrammar assembles the grammar with generic tree-building actions,
// so `liquid parse` can print a syntax tree for any definition.
func (c *grammarConfig) buildGrammar() (*grammar.Grammar, error) {
	b := grammar.NewBuilder()
	for _, pc := range c.Patterns {
		var matchers []lexical.Matcher
		for _, lit := range pc.Literals {
			matchers = append(matchers, lexical.Lit(lit))
		}
		for _, re := range pc.Regexps {
			matchers = append(matchers, lexical.Re(re))
		}
		assoc := lexical.AssocTypeNil
		switch pc.Assoc {
		case "left":
			assoc = lexical.AssocTypeLeft
		case "right":
			assoc = lexical.AssocTypeRight
		case "", "none":
		default:
			return nil, fmt.Errorf("pattern %v: unknown associativity %q", pc.Name, pc.Assoc)
		}
		b.Pattern(&lexical.Pattern{
			Name:       pc.Name,
			Matchers:   matchers,
			Groups:     pc.Groups,
			Precedence: pc.Precedence,
			Assoc:      assoc,
			Ignored:    pc.Ignored,
		})
	}
	for _, rc := range c.Rules {
		b.Rule(rc.LHS, rc.RHS, driver.TreeAction(symbol.Symbol(rc.LHS)))
	}
	return b.Build()
}

func (c *grammarConfig) classAndFavor() (lr.Class, lr.Favor, error) {
	class := lr.ClassLALR
	switch c.Class {
	case "", "lalr":
	case "clr":
		class = lr.ClassCLR
	default:
		return "", "", fmt.Errorf("unknown class %q", c.Class)
	}

	favor := lr.FavorNone
	switch c.Favor {
	case "", "none":
	case "shift":
		favor = lr.FavorShift
	case "reduce":
		favor = lr.FavorReduce
	default:
		return "", "", fmt.Errorf("unknown favor %q", c.Favor)
	}
	return class, favor, nil
}

func (c *grammarConfig) parserOptions() ([]driver.ParserOption, error) {
	class, favor, err := c.classAndFavor()
	if err != nil {
		return nil, err
	}
	return []driver.ParserOption{
		driver.Class(class),
		driver.Favor(favor),
	}, nil
}
