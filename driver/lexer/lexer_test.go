package lexer

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
)

func testPatterns() []*lexical.Pattern {
	return []*lexical.Pattern{
		{
			Name:      "NUMBER",
			Matchers:  []lexical.Matcher{lexical.Re("[0-9]+")},
			Groups:    []string{"Literal"},
			Transform: func(lexeme string) (interface{}, error) { return strconv.Atoi(lexeme) },
		},
		{
			Name:       "PLUS",
			Matchers:   []lexical.Matcher{lexical.Lit("+")},
			Precedence: 1,
			Assoc:      lexical.AssocTypeLeft,
		},
		{
			Name:     "WORD",
			Matchers: []lexical.Matcher{lexical.Re("[a-z]+")},
		},
		{
			Name:     "WS",
			Matchers: []lexical.Matcher{lexical.Re("( |\\t|\\n)+")},
			Ignored:  true,
		},
	}
}

func TestLexTokenVector(t *testing.T) {
	l, err := New(testPatterns())
	require.NoError(t, err)

	toks, err := l.Lex("12 + 3")
	require.NoError(t, err)
	require.Len(t, toks, 4)

	assert.Equal(t, symbol.Symbol("NUMBER"), toks[0].Type)
	assert.Equal(t, "12", toks[0].Lexeme)
	assert.Equal(t, 12, toks[0].Literal)
	assert.Equal(t, []string{"Literal"}, toks[0].Groups)

	assert.Equal(t, symbol.Symbol("PLUS"), toks[1].Type)
	assert.Equal(t, 1, toks[1].Precedence)
	assert.Equal(t, lexical.AssocTypeLeft, toks[1].Assoc)

	assert.Equal(t, symbol.Symbol("NUMBER"), toks[2].Type)
	assert.Equal(t, 3, toks[2].Literal)

	assert.True(t, toks[3].EOF(), "the vector must end with the $ sentinel")
}

func TestLexPositions(t *testing.T) {
	l, err := New(testPatterns())
	require.NoError(t, err)

	toks, err := l.Lex("1+\n22")
	require.NoError(t, err)
	require.Len(t, toks, 4)

	assert.Equal(t, Position{Line: 1, Col: 1}, toks[0].Start)
	assert.Equal(t, Position{Line: 1, Col: 2}, toks[1].Start)
	assert.Equal(t, Position{Line: 2, Col: 1}, toks[2].Start)
	assert.Equal(t, 2, toks[3].Start.Line)
}

func TestLexIgnoredPatterns(t *testing.T) {
	l, err := New(testPatterns())
	require.NoError(t, err)

	toks, err := l.Lex("  1  +  2  ")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	for _, tok := range toks[:3] {
		assert.NotEqual(t, symbol.Symbol("WS"), tok.Type)
	}
}

func TestLexLongestMatch(t *testing.T) {
	l, err := New(testPatterns())
	require.NoError(t, err)

	toks, err := l.Lex("123")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "123", toks[0].Lexeme)
}

func TestLexLiteralBeatsRegexpOnTies(t *testing.T) {
	patterns := []*lexical.Pattern{
		{Name: "IF", Matchers: []lexical.Matcher{lexical.Lit("if")}},
		{Name: "WORD", Matchers: []lexical.Matcher{lexical.Re("[a-z]+")}},
		{Name: "WS", Matchers: []lexical.Matcher{lexical.Re(" +")}, Ignored: true},
	}
	l, err := New(patterns)
	require.NoError(t, err)

	toks, err := l.Lex("if iffy")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, symbol.Symbol("IF"), toks[0].Type)
	assert.Equal(t, symbol.Symbol("WORD"), toks[1].Type, "the longer match must win")
	assert.Equal(t, "iffy", toks[1].Lexeme)
}

func TestLexMultipleMatchers(t *testing.T) {
	patterns := []*lexical.Pattern{
		{Name: "BOOLEAN", Matchers: []lexical.Matcher{lexical.Lit("true"), lexical.Lit("false")}},
		{Name: "WS", Matchers: []lexical.Matcher{lexical.Re(" +")}, Ignored: true},
	}
	l, err := New(patterns)
	require.NoError(t, err)

	toks, err := l.Lex("true false")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, symbol.Symbol("BOOLEAN"), toks[0].Type)
	assert.Equal(t, symbol.Symbol("BOOLEAN"), toks[1].Type)
}

func TestLexUnexpectedInput(t *testing.T) {
	l, err := New(testPatterns())
	require.NoError(t, err)

	_, err = l.Lex("1 % 2")
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Pos.Line)
}

func TestLexTransformError(t *testing.T) {
	patterns := []*lexical.Pattern{
		{
			Name:     "NUMBER",
			Matchers: []lexical.Matcher{lexical.Re("[0-9]+")},
			Transform: func(lexeme string) (interface{}, error) {
				return nil, fmt.Errorf("out of range: %v", lexeme)
			},
		},
	}
	l, err := New(patterns)
	require.NoError(t, err)

	_, err = l.Lex("7")
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, "7", lexErr.Lexeme)
	assert.Error(t, lexErr.Cause)
}

func TestLexEmptyPatternList(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	toks, err := l.Lex("")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.True(t, toks[0].EOF())

	_, err = l.Lex("x")
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
}

func TestLexRejectsBadPatterns(t *testing.T) {
	_, err := New([]*lexical.Pattern{{Name: "EMPTY"}})
	assert.Error(t, err)

	_, err = New([]*lexical.Pattern{
		{Name: "A", Matchers: []lexical.Matcher{lexical.Lit("a")}},
		{Name: "A", Matchers: []lexical.Matcher{lexical.Lit("b")}},
	})
	assert.Error(t, err)
}
