// Package driver runs the shift/reduce loop over a parsing table and
// binds semantic action results to the derivation.
package driver

import (
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"

	"github.com/catinrage/liquid/driver/lexer"
	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/symbol"
	"github.com/catinrage/liquid/lr"
)

func tracer() tracing.Trace {
	return tracing.Select("liquid.driver")
}

// DefaultMaxIterations bounds the driver loop when no option overrides
// it.
const DefaultMaxIterations = 5000

type ParserOption func(p *Parser) error

// MaxIterations caps the number of driver steps a single Parse call may
// take before it aborts with IterationLimitError.
func MaxIterations(n int) ParserOption {
	return func(p *Parser) error {
		if n < 1 {
			return fmt.Errorf("the iteration limit must be at least 1")
		}
		p.maxIterations = n
		return nil
	}
}

// Class selects the automaton construction, LALR by default.
func Class(c lr.Class) ParserOption {
	return func(p *Parser) error {
		p.class = c
		return nil
	}
}

// Favor breaks shift/reduce ties that precedence and associativity leave
// open.
func Favor(f lr.Favor) ParserOption {
	return func(p *Parser) error {
		p.favor = f
		return nil
	}
}

// Debug writes a description of the automaton, the table, and the
// resolved conflicts to w once construction finishes.
func Debug(w io.Writer) ParserOption {
	return func(p *Parser) error {
		p.debug = w
		return nil
	}
}

// Parser owns a grammar's automaton, parsing table, and lexer. It is
// immutable after New; concurrent Parse calls each run on their own
// stack.
type Parser struct {
	gram          *grammar.Grammar
	lex           *lexer.Lexer
	automaton     *lr.Automaton
	table         *lr.ParsingTable
	class         lr.Class
	favor         lr.Favor
	maxIterations int
	debug         io.Writer
}

// New builds the automaton and the parsing table once. Conflicts the
// precedence rules cannot resolve abort construction with ConflictError.
func New(gram *grammar.Grammar, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		gram:          gram,
		class:         lr.ClassLALR,
		favor:         lr.FavorNone,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	lex, err := lexer.New(gram.Patterns())
	if err != nil {
		return nil, err
	}
	p.lex = lex

	automaton, err := lr.NewAutomaton(gram, p.class)
	if err != nil {
		return nil, err
	}
	p.automaton = automaton

	builder := lr.NewTableBuilder(automaton, p.favor)
	table, err := builder.Build()
	if err != nil {
		return nil, err
	}
	p.table = table

	if p.debug != nil {
		builder.WriteDescription(p.debug, table)
	}

	return p, nil
}

// Automaton exposes the constructed automaton for inspection.
func (p *Parser) Automaton() *lr.Automaton {
	return p.automaton
}

// Table exposes the assembled parsing table for inspection.
func (p *Parser) Table() *lr.ParsingTable {
	return p.table
}

// Parse lexes the input and parses the token vector. It returns the
// semantic value the start rule's action produced.
func (p *Parser) Parse(input string) (interface{}, error) {
	toks, err := p.lex.Lex(input)
	if err != nil {
		return nil, err
	}
	return p.ParseTokens(toks)
}

// frame is one entry of the driver stack. State frames and symbol frames
// alternate, with a state frame at the bottom.
type frame interface {
	frame()
}

type stateFrame struct {
	num lr.StateNum
}

type terminalFrame struct {
	tok *lexer.Token
}

type variableFrame struct {
	lhs     symbol.Symbol
	context interface{}
}

func (f *stateFrame) frame()    {}
func (f *terminalFrame) frame() {}
func (f *variableFrame) frame() {}

// ParseTokens runs the shift/reduce loop over an already-lexed token
// vector. The vector must end with the $ sentinel.
func (p *Parser) ParseTokens(toks []*lexer.Token) (interface{}, error) {
	if len(toks) == 0 || !toks[len(toks)-1].EOF() {
		return nil, fmt.Errorf("the token vector must end with %v", symbol.EOF)
	}

	stack := []frame{&stateFrame{num: lr.StateNumInitial}}
	cursor := 0

	for i := 0; i < p.maxIterations; i++ {
		top := stack[len(stack)-1].(*stateFrame).num
		tok := toks[cursor]

		act, ok := p.table.Action(top, tok.Type)
		if !ok {
			return nil, &SyntaxError{
				Token:    tok,
				Expected: p.table.Expected(top),
			}
		}

		switch act.Type {
		case lr.ActionTypeShift:
			tracer().Debugf("state %v: shift %v on %v", top, act.State, tok.Type)
			stack = append(stack, &terminalFrame{tok: tok}, &stateFrame{num: act.State})
			if cursor+1 < len(toks) {
				cursor++
			}

		case lr.ActionTypeReduce:
			rule := act.Rule
			tracer().Debugf("state %v: reduce %v", top, rule)

			n := rule.Arity()
			popped := stack[len(stack)-2*n:]
			stack = stack[:len(stack)-2*n]

			// The popped slice keeps stack order, so the symbol frames at
			// the even offsets are already left to right.
			payloads := make([]interface{}, 0, n)
			for j := 0; j < len(popped); j += 2 {
				switch f := popped[j].(type) {
				case *terminalFrame:
					payloads = append(payloads, f.tok)
				case *variableFrame:
					payloads = append(payloads, f.context)
				default:
					return nil, fmt.Errorf("corrupt stack: state frame at a symbol position")
				}
			}

			context := applyAction(rule, payloads)

			back := stack[len(stack)-1].(*stateFrame).num
			gotoAct, ok := p.table.Action(back, rule.LHS())
			if !ok || gotoAct.Type != lr.ActionTypeGoTo {
				return nil, fmt.Errorf("no goto from state %v on %v", back, rule.LHS())
			}
			stack = append(stack, &variableFrame{lhs: rule.LHS(), context: context}, &stateFrame{num: gotoAct.State})

		case lr.ActionTypeAccept:
			tracer().Debugf("accepted after %v steps", i)
			return stack[1].(*variableFrame).context, nil

		default:
			return nil, fmt.Errorf("unexpected action %v on a terminal cell", act)
		}
	}

	return nil, &IterationLimitError{Limit: p.maxIterations}
}

// applyAction invokes the rule's semantic action. A nil action is the
// identity: a single payload passes through (a lone token yields its
// literal), anything else yields the payload list.
func applyAction(rule *grammar.Rule, payloads []interface{}) interface{} {
	if act := rule.Action(); act != nil {
		return act(payloads)
	}
	if len(payloads) == 1 {
		if tok, ok := payloads[0].(*lexer.Token); ok {
			return tok.Literal
		}
		return payloads[0]
	}
	return payloads
}
