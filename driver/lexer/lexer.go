// Package lexer turns source text into the token vector the parse driver
// consumes, backed by lexmachine DFAs compiled from the grammar's
// lexical patterns.
package lexer

import (
	"fmt"
	"strings"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
)

// Position is a 1-based line/column position in the input.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%v:%v", p.Line, p.Col)
}

// Token is one lexed unit. The driver's alphabet is keyed on Type; the
// final token of every stream has Type $ and an empty lexeme.
type Token struct {
	Type       symbol.Symbol
	Lexeme     string
	Literal    interface{}
	Groups     []string
	Precedence int
	Assoc      lexical.AssocType
	Start      Position
	End        Position
}

func (t *Token) EOF() bool {
	return t.Type.IsEOF()
}

func (t *Token) String() string {
	if t.EOF() {
		return "<eof>"
	}
	return fmt.Sprintf("%v (%v) at %v", t.Type, t.Lexeme, t.Start)
}

// Error reports input no pattern matches, or a transform failure.
type Error struct {
	Lexeme string
	Pos    Position
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lexical error at %v: %v", e.Pos, e.Cause)
	}
	return fmt.Sprintf("lexical error at %v: unexpected input %q", e.Pos, e.Lexeme)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Lexer matches a fixed pattern list. It is immutable after New and safe
// to share; each Lex call scans independently.
type Lexer struct {
	lm       *lexmachine.Lexer
	patterns []*lexical.Pattern
}

// New compiles the patterns into a DFA. Literal matchers match their
// text verbatim, regexp matchers compile as written. The longest match
// wins; among equal-length matches the earliest pattern does.
func New(patterns []*lexical.Pattern) (*Lexer, error) {
	if err := lexical.Validate(patterns); err != nil {
		return nil, err
	}

	// A grammar deriving only ε declares no patterns; there is nothing to
	// compile and Lex accepts exactly the empty input.
	if len(patterns) == 0 {
		return &Lexer{}, nil
	}

	lm := lexmachine.NewLexer()
	for i, pat := range patterns {
		for _, m := range pat.Matchers {
			expr := m.Expr()
			if m.Kind() == lexical.MatcherKindLiteral {
				expr = escapeLiteral(expr)
			}
			lm.Add([]byte(expr), makeToken(i))
		}
	}
	if err := lm.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile the lexical patterns: %w", err)
	}

	return &Lexer{
		lm:       lm,
		patterns: patterns,
	}, nil
}

// escapeLiteral backslash-escapes the characters the pattern language
// treats as operators, so a literal matcher matches verbatim.
func escapeLiteral(lit string) string {
	var b strings.Builder
	for _, r := range lit {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func makeToken(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// Lex scans the whole input and returns the token vector, ignored
// patterns dropped and the $ sentinel appended.
func (l *Lexer) Lex(input string) ([]*Token, error) {
	if l.lm == nil {
		if len(input) > 0 {
			return nil, &Error{
				Lexeme: input,
				Pos:    Position{Line: 1, Col: 1},
			}
		}
		return []*Token{{
			Type:  symbol.EOF,
			Start: Position{Line: 1, Col: 1},
			End:   Position{Line: 1, Col: 1},
		}}, nil
	}

	scanner, err := l.lm.Scanner([]byte(input))
	if err != nil {
		return nil, err
	}

	var toks []*Token
	for {
		raw, err, eof := scanner.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				lexeme := ""
				if ui.FailTC <= len(ui.Text) && ui.StartTC < ui.FailTC {
					lexeme = string(ui.Text[ui.StartTC:ui.FailTC])
				}
				return nil, &Error{
					Lexeme: lexeme,
					Pos:    Position{Line: ui.StartLine, Col: ui.StartColumn},
				}
			}
			return nil, err
		}

		lmTok := raw.(*lexmachine.Token)
		pat := l.patterns[lmTok.Type]
		if pat.Ignored {
			continue
		}

		tok, err := l.wrap(pat, lmTok)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}

	end := endPosition(input)
	toks = append(toks, &Token{
		Type:  symbol.EOF,
		Start: end,
		End:   end,
	})
	return toks, nil
}

func (l *Lexer) wrap(pat *lexical.Pattern, lmTok *lexmachine.Token) (*Token, error) {
	lexeme := lmTok.Value.(string)
	start := Position{Line: lmTok.StartLine, Col: lmTok.StartColumn}

	literal := interface{}(lexeme)
	if pat.Transform != nil {
		v, err := pat.Transform(lexeme)
		if err != nil {
			return nil, &Error{
				Lexeme: lexeme,
				Pos:    start,
				Cause:  err,
			}
		}
		literal = v
	}

	return &Token{
		Type:       symbol.Symbol(pat.Name),
		Lexeme:     lexeme,
		Literal:    literal,
		Groups:     pat.Groups,
		Precedence: pat.Precedence,
		Assoc:      pat.Assoc,
		Start:      start,
		End:        Position{Line: lmTok.EndLine, Col: lmTok.EndColumn},
	}, nil
}

func endPosition(input string) Position {
	line := strings.Count(input, "\n") + 1
	col := len(input) - strings.LastIndex(input, "\n")
	return Position{Line: line, Col: col}
}
