package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catinrage/liquid/driver/lexer"
	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
	"github.com/catinrage/liquid/lr"
)

type ifStmt struct {
	cond string
	then interface{}
	els  interface{}
}

// TestDanglingElse checks that a higher-precedence else shifts, binding
// the else branch to the innermost if.
func TestDanglingElse(t *testing.T) {
	ifElse := func(payloads []interface{}) interface{} {
		return &ifStmt{
			cond: payloads[1].(*lexer.Token).Lexeme,
			then: payloads[3],
			els:  payloads[5],
		}
	}
	ifOnly := func(payloads []interface{}) interface{} {
		return &ifStmt{
			cond: payloads[1].(*lexer.Token).Lexeme,
			then: payloads[3],
		}
	}

	g, err := grammar.NewBuilder().
		Patterns(
			&lexical.Pattern{Name: "IF", Matchers: []lexical.Matcher{lexical.Lit("if")}},
			&lexical.Pattern{Name: "THEN", Matchers: []lexical.Matcher{lexical.Lit("then")}},
			&lexical.Pattern{Name: "ELSE", Matchers: []lexical.Matcher{lexical.Lit("else")}, Precedence: 1},
			&lexical.Pattern{Name: "ID", Matchers: []lexical.Matcher{lexical.Re("[a-z]+")}},
			&lexical.Pattern{Name: "WS", Matchers: []lexical.Matcher{lexical.Re("( |\\t)+")}, Ignored: true},
		).
		Rule("S", "IF ID THEN S ELSE S", ifElse).
		Rule("S", "IF ID THEN S", ifOnly).
		Rule("S", "ID", nil).
		Build()
	require.NoError(t, err)

	p, err := New(g)
	require.NoError(t, err)

	got, err := p.Parse("if a then if b then c else d")
	require.NoError(t, err)

	outer, ok := got.(*ifStmt)
	require.True(t, ok)
	assert.Equal(t, "a", outer.cond)
	assert.Nil(t, outer.els, "the else branch must bind to the inner if")

	inner, ok := outer.then.(*ifStmt)
	require.True(t, ok)
	assert.Equal(t, "b", inner.cond)
	assert.Equal(t, "c", inner.then)
	assert.Equal(t, "d", inner.els)
}

// TestUnresolvableConflict checks that a shift/reduce conflict with no
// associativity fails parser construction.
func TestUnresolvableConflict(t *testing.T) {
	g, err := grammar.NewBuilder().
		Patterns(
			&lexical.Pattern{Name: "PLUS", Matchers: []lexical.Matcher{lexical.Lit("+")}},
			&lexical.Pattern{Name: "A", Matchers: []lexical.Matcher{lexical.Lit("a")}},
		).
		Rule("S", "S PLUS S", nil).
		Rule("S", "A", nil).
		Build()
	require.NoError(t, err)

	_, err = New(g)
	var conflictErr *lr.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, lr.ConflictKindShiftReduce, conflictErr.Kind)
	assert.Equal(t, symbol.Symbol("PLUS"), conflictErr.Symbol)
}

// TestFavorSetting checks that the global favor setting decides ties the
// associativity leaves open.
func TestFavorSetting(t *testing.T) {
	pair := func(payloads []interface{}) interface{} {
		return []interface{}{payloads[0], payloads[2]}
	}
	build := func(t *testing.T) *grammar.Grammar {
		g, err := grammar.NewBuilder().
			Patterns(
				&lexical.Pattern{Name: "PLUS", Matchers: []lexical.Matcher{lexical.Lit("+")}},
				&lexical.Pattern{Name: "NUMBER", Matchers: []lexical.Matcher{lexical.Re("[0-9]+")}, Transform: atoi},
			).
			Rule("S", "S PLUS S", pair).
			Rule("S", "NUMBER", nil).
			Build()
		require.NoError(t, err)
		return g
	}

	t.Run("favor shift parses right-associatively", func(t *testing.T) {
		p, err := New(build(t), Favor(lr.FavorShift))
		require.NoError(t, err)

		got, err := p.Parse("1+2+3")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, []interface{}{2, 3}}, got)
	})

	t.Run("favor reduce parses left-associatively", func(t *testing.T) {
		p, err := New(build(t), Favor(lr.FavorReduce))
		require.NoError(t, err)

		got, err := p.Parse("1+2+3")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{[]interface{}{1, 2}, 3}, got)
	})
}

// TestClassesAcceptTheSameLanguage drives the same inputs through the
// canonical and the merged automaton; LALR must be smaller but answer
// identically.
func TestClassesAcceptTheSameLanguage(t *testing.T) {
	g, err := grammar.NewBuilder().
		Patterns(
			&lexical.Pattern{Name: "eq", Matchers: []lexical.Matcher{lexical.Lit("=")}},
			&lexical.Pattern{Name: "ref", Matchers: []lexical.Matcher{lexical.Lit("*")}},
			&lexical.Pattern{Name: "id", Matchers: []lexical.Matcher{lexical.Re("[a-z]+")}},
			&lexical.Pattern{Name: "WS", Matchers: []lexical.Matcher{lexical.Re("( |\\t)+")}, Ignored: true},
		).
		Rule("S", "L eq R", TreeAction("S")).
		Rule("S", "R", TreeAction("S")).
		Rule("L", "ref R", TreeAction("L")).
		Rule("L", "id", TreeAction("L")).
		Rule("R", "L", TreeAction("R")).
		Build()
	require.NoError(t, err)

	lalr, err := New(g, Class(lr.ClassLALR))
	require.NoError(t, err)
	clr, err := New(g, Class(lr.ClassCLR))
	require.NoError(t, err)

	assert.Less(t, len(lalr.Automaton().States()), len(clr.Automaton().States()),
		"merging must yield strictly fewer states")

	inputs := []struct {
		src string
		ok  bool
	}{
		{src: "x = y", ok: true},
		{src: "*x = y", ok: true},
		{src: "x = *y", ok: true},
		{src: "**x", ok: true},
		{src: "x =", ok: false},
		{src: "= x", ok: false},
	}
	for _, tt := range inputs {
		t.Run(tt.src, func(t *testing.T) {
			_, lalrErr := lalr.Parse(tt.src)
			_, clrErr := clr.Parse(tt.src)
			if tt.ok {
				assert.NoError(t, lalrErr)
				assert.NoError(t, clrErr)
			} else {
				assert.Error(t, lalrErr)
				assert.Error(t, clrErr)
			}
		})
	}
}
