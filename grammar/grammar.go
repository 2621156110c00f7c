package grammar

import (
	"fmt"
	"strings"

	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
)

// Grammar is an immutable context-free grammar: ordered rules, the
// variable/terminal partition, FIRST sets, and the precedence and
// associativity the lexical patterns declare for terminals.
type Grammar struct {
	rules        *ruleSet
	start        symbol.Symbol
	augmented    *Rule
	variables    symbol.Set
	patterns     []*lexical.Pattern
	name2Pattern map[string]*lexical.Pattern
	first        *firstSet
	termPrec     map[symbol.Symbol]int
	termAssoc    map[symbol.Symbol]lexical.AssocType
}

// Builder accumulates rules and patterns and assembles a Grammar.
type Builder struct {
	rules    []*Rule
	patterns []*lexical.Pattern
	errs     []error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Rule declares a production rule. The RHS is a space-separated symbol
// sequence; `ε` alone declares the empty production. A nil action stands
// for the identity action.
func (b *Builder) Rule(lhs string, rhs string, action SemanticAction) *Builder {
	return b.RuleSyms(lhs, symbol.Fields(rhs), action)
}

// RuleSyms declares a production rule from an explicit symbol sequence.
func (b *Builder) RuleSyms(lhs string, rhs []symbol.Symbol, action SemanticAction) *Builder {
	rule, err := newRule(symbol.Symbol(lhs), rhs, action)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.rules = append(b.rules, rule)
	return b
}

// Pattern declares a lexical pattern.
func (b *Builder) Pattern(pat *lexical.Pattern) *Builder {
	b.patterns = append(b.patterns, pat)
	return b
}

// Patterns declares a list of lexical patterns.
func (b *Builder) Patterns(pats ...*lexical.Pattern) *Builder {
	b.patterns = append(b.patterns, pats...)
	return b
}

// Build assembles the grammar. Group references in rule RHSes are
// expanded before construction; rule 0 of the result is the start rule.
func (b *Builder) Build() (*Grammar, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.rules) == 0 {
		return nil, semErrNoRules
	}
	if err := lexical.Validate(b.patterns); err != nil {
		return nil, err
	}

	name2Pattern := map[string]*lexical.Pattern{}
	for _, pat := range b.patterns {
		if symbol.Symbol(pat.Name).IsReserved() {
			return nil, fmt.Errorf("%w: %v", semErrReservedName, pat.Name)
		}
		name2Pattern[pat.Name] = pat
	}

	expanded, err := expandGroups(b.rules, b.patterns)
	if err != nil {
		return nil, err
	}

	rules := newRuleSet()
	for _, rule := range expanded {
		rules.append(rule)
	}

	variables := symbol.Set{}
	for _, rule := range rules.rules {
		if _, ok := name2Pattern[string(rule.lhs)]; ok {
			return nil, fmt.Errorf("%w: %v", semErrVariableIsPattern, rule.lhs)
		}
		variables.Add(rule.lhs)
	}

	first, err := genFirstSet(rules)
	if err != nil {
		return nil, err
	}

	termPrec := map[symbol.Symbol]int{}
	termAssoc := map[symbol.Symbol]lexical.AssocType{}
	for _, pat := range b.patterns {
		sym := symbol.Symbol(pat.Name)
		if pat.Precedence > 0 {
			termPrec[sym] = pat.Precedence
		}
		if pat.Assoc != lexical.AssocTypeNil {
			termAssoc[sym] = pat.Assoc
		}
	}

	start := rules.rules[0].lhs
	augmented := &Rule{
		id:  genRuleID(symbol.Augmented, []symbol.Symbol{start}),
		num: ruleNumAugmented,
		lhs: symbol.Augmented,
		rhs: []symbol.Symbol{start},
	}

	return &Grammar{
		rules:        rules,
		start:        start,
		augmented:    augmented,
		variables:    variables,
		patterns:     b.patterns,
		name2Pattern: name2Pattern,
		first:        first,
		termPrec:     termPrec,
		termAssoc:    termAssoc,
	}, nil
}

// expandGroups rewrites every `:GroupName:` RHS element into one rule per
// pattern in the group, substituting the pattern name at that position.
// The original grouped rule is removed.
func expandGroups(rules []*Rule, patterns []*lexical.Pattern) ([]*Rule, error) {
	var result []*Rule
	pending := rules
	for len(pending) > 0 {
		rule := pending[0]
		pending = pending[1:]

		pos := -1
		var group string
		for i, sym := range rule.rhs {
			name := string(sym)
			if len(name) > 2 && strings.HasPrefix(name, ":") && strings.HasSuffix(name, ":") {
				pos = i
				group = name[1 : len(name)-1]
				break
			}
		}
		if pos < 0 {
			result = append(result, rule)
			continue
		}

		var members []*lexical.Pattern
		for _, pat := range patterns {
			if pat.InGroup(group) {
				members = append(members, pat)
			}
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: %v", semErrEmptyGroup, group)
		}

		// Expanded rules replace the original in place, so the relative
		// order of the surrounding rules is stable.
		expansions := make([]*Rule, 0, len(members))
		for _, pat := range members {
			rhs := make([]symbol.Symbol, len(rule.rhs))
			copy(rhs, rule.rhs)
			rhs[pos] = symbol.Symbol(pat.Name)
			r, err := newRule(rule.lhs, rhs, rule.action)
			if err != nil {
				return nil, err
			}
			expansions = append(expansions, r)
		}
		pending = append(expansions, pending...)
	}
	return result, nil
}

// Rules returns the grammar's rules in declaration order. Rule 0 is the
// start rule.
func (g *Grammar) Rules() []*Rule {
	return g.rules.rules
}

func (g *Grammar) RuleByNum(num RuleNum) (*Rule, bool) {
	if num == ruleNumAugmented {
		return g.augmented, true
	}
	if num < 0 || num.Int() >= len(g.rules.rules) {
		return nil, false
	}
	return g.rules.rules[num.Int()], true
}

// RulesByLHS returns every rule whose LHS is the given variable.
func (g *Grammar) RulesByLHS(lhs symbol.Symbol) []*Rule {
	if lhs.IsAugmented() {
		return []*Rule{g.augmented}
	}
	return g.rules.findByLHS(lhs)
}

func (g *Grammar) Start() symbol.Symbol {
	return g.start
}

// Augmented is the synthetic start rule AUG → start.
func (g *Grammar) Augmented() *Rule {
	return g.augmented
}

func (g *Grammar) IsVariable(sym symbol.Symbol) bool {
	return g.variables.Has(sym) || sym.IsAugmented()
}

// IsTerminal reports whether sym acts as a terminal: it is not a variable
// and not ε.
func (g *Grammar) IsTerminal(sym symbol.Symbol) bool {
	if sym.IsNil() || sym.IsEmpty() || sym.IsAugmented() {
		return false
	}
	return !g.variables.Has(sym)
}

// Terminals returns every terminal appearing in rules or declared by a
// pattern, in sorted order. The EOF sentinel is included.
func (g *Grammar) Terminals() []symbol.Symbol {
	set := symbol.NewSet(symbol.EOF)
	for _, pat := range g.patterns {
		if !pat.Ignored {
			set.Add(symbol.Symbol(pat.Name))
		}
	}
	for _, rule := range g.rules.rules {
		for _, sym := range rule.rhs {
			if g.IsTerminal(sym) {
				set.Add(sym)
			}
		}
	}
	return set.Sorted()
}

// Variables returns every variable in sorted order, the augmented start
// symbol excluded.
func (g *Grammar) Variables() []symbol.Symbol {
	return g.variables.Sorted()
}

func (g *Grammar) Patterns() []*lexical.Pattern {
	return g.patterns
}

func (g *Grammar) PatternByName(name string) (*lexical.Pattern, bool) {
	pat, ok := g.name2Pattern[name]
	return pat, ok
}

// First returns FIRST(sym) and whether sym can derive ε. For a terminal,
// FIRST is the symbol itself.
func (g *Grammar) First(sym symbol.Symbol) (symbol.Set, bool) {
	e := g.first.findBySymbol(sym)
	if e == nil {
		return symbol.NewSet(sym), false
	}
	return e.symbols, e.empty
}

// FirstOfSeq returns FIRST over a symbol sequence and whether the whole
// sequence can derive ε.
func (g *Grammar) FirstOfSeq(seq []symbol.Symbol) (symbol.Set, bool, error) {
	e, err := g.first.findOfSeq(seq)
	if err != nil {
		return nil, false, err
	}
	return e.symbols, e.empty, nil
}

// TerminalPrecedence is the pattern-declared precedence of a terminal, or
// 0 when the terminal declares none.
func (g *Grammar) TerminalPrecedence(sym symbol.Symbol) int {
	return g.termPrec[sym]
}

func (g *Grammar) TerminalAssociativity(sym symbol.Symbol) lexical.AssocType {
	return g.termAssoc[sym]
}

// RulePrecedence is the highest pattern-declared precedence of any
// terminal in the rule's RHS, or 0 when none declares one.
func (g *Grammar) RulePrecedence(rule *Rule) int {
	prec := 0
	for _, sym := range rule.rhs {
		if !g.IsTerminal(sym) {
			continue
		}
		if p := g.termPrec[sym]; p > prec {
			prec = p
		}
	}
	return prec
}

// Inspect reports non-fatal findings: RHS symbols that are neither a
// variable nor a pattern nor ε, and variables unreachable from the start
// symbol. Callers decide whether a finding is a warning or an error.
func (g *Grammar) Inspect() []error {
	var findings []error

	for _, rule := range g.rules.rules {
		for _, sym := range rule.rhs {
			if g.IsVariable(sym) || sym.IsEOF() {
				continue
			}
			if _, ok := g.name2Pattern[string(sym)]; ok {
				continue
			}
			findings = append(findings, &UndefinedSymbolError{
				Rule:   rule,
				Symbol: sym,
			})
		}
	}

	reachable := symbol.NewSet(g.start)
	frontier := []symbol.Symbol{g.start}
	for len(frontier) > 0 {
		sym := frontier[0]
		frontier = frontier[1:]
		for _, rule := range g.rules.findByLHS(sym) {
			for _, s := range rule.rhs {
				if !g.variables.Has(s) {
					continue
				}
				if reachable.Add(s) {
					frontier = append(frontier, s)
				}
			}
		}
	}
	for _, sym := range g.variables.Sorted() {
		if !reachable.Has(sym) {
			findings = append(findings, &UnreachableVariableError{Name: sym})
		}
	}

	return findings
}

// String renders the rules one per line for inspection.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, rule := range g.rules.rules {
		fmt.Fprintf(&b, "%4v %v\n", rule.num, rule)
	}
	return b.String()
}
