package driver

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catinrage/liquid/driver/lexer"
	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
	"github.com/catinrage/liquid/lr"
)

func atoi(lexeme string) (interface{}, error) {
	return strconv.Atoi(lexeme)
}

func arithPatterns() []*lexical.Pattern {
	return []*lexical.Pattern{
		{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}, Transform: atoi},
		{Name: "PLUS", Matchers: []lexical.Matcher{lexical.Lit("+")}, Precedence: 1, Assoc: lexical.AssocTypeLeft},
		{Name: "TIMES", Matchers: []lexical.Matcher{lexical.Lit("*")}, Precedence: 2, Assoc: lexical.AssocTypeLeft},
		{Name: "WS", Matchers: []lexical.Matcher{lexical.Re("( |\\t)+")}, Ignored: true},
	}
}

func arithGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()

	sum := func(payloads []interface{}) interface{} {
		return payloads[0].(int) + payloads[2].(int)
	}
	mul := func(payloads []interface{}) interface{} {
		return payloads[0].(int) * payloads[2].(int)
	}

	g, err := grammar.NewBuilder().
		Patterns(arithPatterns()...).
		Rule("S", "S PLUS S", sum).
		Rule("S", "S TIMES S", mul).
		Rule("S", "NUMBER", nil).
		Build()
	require.NoError(t, err)
	return g
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "1+2*3", want: 7},
		{input: "1*2+3", want: 5},
		{input: "2*3*4", want: 24},
		{input: "1+2+3", want: 6},
		{input: " 7 ", want: 7},
	}

	for _, class := range []lr.Class{lr.ClassLALR, lr.ClassCLR} {
		t.Run(string(class), func(t *testing.T) {
			p, err := New(arithGrammar(t), Class(class))
			require.NoError(t, err)

			for _, tt := range tests {
				t.Run(tt.input, func(t *testing.T) {
					got, err := p.Parse(tt.input)
					require.NoError(t, err)
					assert.Equal(t, tt.want, got)
				})
			}
		})
	}
}

func TestLeftAssociativityShape(t *testing.T) {
	pair := func(payloads []interface{}) interface{} {
		return []interface{}{payloads[0], payloads[2]}
	}
	g, err := grammar.NewBuilder().
		Patterns(arithPatterns()...).
		Rule("S", "S PLUS S", pair).
		Rule("S", "NUMBER", nil).
		Build()
	require.NoError(t, err)

	p, err := New(g)
	require.NoError(t, err)

	got, err := p.Parse("1+2+3")
	require.NoError(t, err)
	// Left associativity reduces early: (1+2)+3.
	assert.Equal(t, []interface{}{[]interface{}{1, 2}, 3}, got)
}

func TestIdentityAction(t *testing.T) {
	t.Run("a transformed literal passes through unchanged", func(t *testing.T) {
		g, err := grammar.NewBuilder().
			Patterns(
				&lexical.Pattern{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}, Transform: atoi},
			).
			Rule("Expr", "NUMBER", nil).
			Build()
		require.NoError(t, err)

		p, err := New(g)
		require.NoError(t, err)

		got, err := p.Parse("42")
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("without a transform the literal is the lexeme", func(t *testing.T) {
		g, err := grammar.NewBuilder().
			Patterns(
				&lexical.Pattern{Name: "WORD", Matchers: []lexical.Matcher{lexical.Re("[a-z]+")}},
			).
			Rule("Expr", "WORD", nil).
			Build()
		require.NoError(t, err)

		p, err := New(g)
		require.NoError(t, err)

		got, err := p.Parse("hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("a chain of unit rules is transparent", func(t *testing.T) {
		g, err := grammar.NewBuilder().
			Patterns(
				&lexical.Pattern{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}, Transform: atoi},
			).
			Rule("Expr", "Term", nil).
			Rule("Term", "NUMBER", nil).
			Build()
		require.NoError(t, err)

		p, err := New(g)
		require.NoError(t, err)

		got, err := p.Parse("42")
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})
}

func TestEmptyInput(t *testing.T) {
	t.Run("a grammar that does not derive ε rejects it", func(t *testing.T) {
		p, err := New(arithGrammar(t))
		require.NoError(t, err)

		_, err = p.Parse("")
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.True(t, syntaxErr.Token.EOF())
	})

	t.Run("a grammar deriving ε accepts exactly the empty input", func(t *testing.T) {
		g, err := grammar.NewBuilder().
			Rule("S", "ε", func(payloads []interface{}) interface{} {
				return "empty"
			}).
			Build()
		require.NoError(t, err)

		p, err := New(g)
		require.NoError(t, err)

		got, err := p.Parse("")
		require.NoError(t, err)
		assert.Equal(t, "empty", got)

		_, err = p.Parse("x")
		assert.Error(t, err)
	})
}

func TestIterationLimit(t *testing.T) {
	p, err := New(arithGrammar(t), MaxIterations(1))
	require.NoError(t, err)

	_, err = p.Parse("1+2")
	var limitErr *IterationLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 1, limitErr.Limit)

	_, err = New(arithGrammar(t), MaxIterations(0))
	assert.Error(t, err)
}

func TestUnexpectedTokenSuggestions(t *testing.T) {
	p, err := New(arithGrammar(t))
	require.NoError(t, err)

	_, err = p.Parse("1+*3")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)

	assert.Equal(t, symbol.Symbol("TIMES"), syntaxErr.Token.Type)
	assert.Equal(t, lexer.Position{Line: 1, Col: 3}, syntaxErr.Token.Start)

	suggestions := symbol.NewSet(syntaxErr.Expected...)
	assert.True(t, suggestions.Has("NUMBER"), "NUMBER must be suggested; got: %v", suggestions)
	assert.False(t, suggestions.Has(symbol.EOF))
	assert.False(t, suggestions.Has(symbol.Empty))
}

func TestLexicalErrorSurfacesThroughParse(t *testing.T) {
	p, err := New(arithGrammar(t))
	require.NoError(t, err)

	_, err = p.Parse("1+%")
	var lexErr *lexer.Error
	require.ErrorAs(t, err, &lexErr)
}

func TestParseTokensRequiresEOF(t *testing.T) {
	p, err := New(arithGrammar(t))
	require.NoError(t, err)

	_, err = p.ParseTokens(nil)
	assert.Error(t, err)

	_, err = p.ParseTokens([]*lexer.Token{{Type: "NUMBER", Lexeme: "1", Literal: 1}})
	assert.Error(t, err)
}

func TestGroupExpansionEndToEnd(t *testing.T) {
	g, err := grammar.NewBuilder().
		Patterns(
			&lexical.Pattern{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}, Transform: atoi, Groups: []string{"Literal"}},
			&lexical.Pattern{Name: "WORD", Matchers: []lexical.Matcher{lexical.Re("[a-z]+")}, Groups: []string{"Literal"}},
		).
		Rule("V", ":Literal:", nil).
		Build()
	require.NoError(t, err)
	require.Len(t, g.Rules(), 2)

	p, err := New(g)
	require.NoError(t, err)

	got, err := p.Parse("42")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = p.Parse("word")
	require.NoError(t, err)
	assert.Equal(t, "word", got)
}

func TestTreeAction(t *testing.T) {
	g, err := grammar.NewBuilder().
		Patterns(
			&lexical.Pattern{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}},
			&lexical.Pattern{Name: "PLUS", Matchers: []lexical.Matcher{lexical.Lit("+")}, Precedence: 1, Assoc: lexical.AssocTypeLeft},
		).
		Rule("S", "S PLUS S", TreeAction("S")).
		Rule("S", "NUMBER", TreeAction("S")).
		Build()
	require.NoError(t, err)

	p, err := New(g)
	require.NoError(t, err)

	got, err := p.Parse("1+2")
	require.NoError(t, err)

	root, ok := got.(*Node)
	require.True(t, ok)
	assert.Equal(t, symbol.Symbol("S"), root.Sym)
	assert.False(t, root.Leaf())
	require.Len(t, root.Children, 3)

	plus := root.Children[1]
	assert.True(t, plus.Leaf())
	assert.Equal(t, symbol.Symbol("PLUS"), plus.Sym)
	assert.Equal(t, "+", plus.Tok.Lexeme)
	assert.Equal(t, lexer.Position{Line: 1, Col: 2}, plus.Tok.Start)

	var b strings.Builder
	root.Dump(&b)
	want := `S
  S
    NUMBER "1" @1:1
  PLUS "+" @1:2
  S
    NUMBER "2" @1:3
`
	assert.Equal(t, want, b.String())
}
