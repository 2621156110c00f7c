package lexical

import (
	"fmt"
)

// AssocType is the associativity of a terminal symbol.
type AssocType string

const (
	AssocTypeNil   = AssocType("")
	AssocTypeLeft  = AssocType("left")
	AssocTypeRight = AssocType("right")
)

func (t AssocType) String() string {
	if t == AssocTypeNil {
		return "none"
	}
	return string(t)
}

// MatcherKind distinguishes literal matchers from regular expressions.
type MatcherKind string

const (
	MatcherKindLiteral = MatcherKind("literal")
	MatcherKindRegexp  = MatcherKind("regexp")
)

// Matcher is a single way a pattern can match input text.
type Matcher struct {
	kind MatcherKind
	expr string
}

// Lit makes a matcher that matches expr verbatim.
func Lit(expr string) Matcher {
	return Matcher{kind: MatcherKindLiteral, expr: expr}
}

// Re makes a matcher that matches the regular expression expr.
func Re(expr string) Matcher {
	return Matcher{kind: MatcherKindRegexp, expr: expr}
}

func (m Matcher) Kind() MatcherKind {
	return m.kind
}

func (m Matcher) Expr() string {
	return m.expr
}

func (m Matcher) String() string {
	if m.kind == MatcherKindLiteral {
		return fmt.Sprintf("%q", m.expr)
	}
	return fmt.Sprintf("/%v/", m.expr)
}

// TransformFunc converts a lexeme into the literal value its token carries.
type TransformFunc func(lexeme string) (interface{}, error)

// Pattern declares a terminal symbol of the grammar together with the way
// the lexer recognizes it.
type Pattern struct {
	// Name is the terminal symbol the pattern defines.
	Name string

	// Matchers lists the ways the pattern matches. A pattern needs at
	// least one matcher.
	Matchers []Matcher

	// Groups names the pattern groups the pattern belongs to. A rule may
	// reference a group with the `:GroupName:` form in its RHS.
	Groups []string

	// Transform computes a token's literal value from its lexeme. When
	// nil, the literal is the lexeme itself.
	Transform TransformFunc

	// Precedence is the operator precedence of the terminal. Zero means
	// no declared precedence.
	Precedence int

	// Assoc is the associativity of the terminal.
	Assoc AssocType

	// Ignored patterns match and discard input, like whitespace and
	// comments. They never reach the parser.
	Ignored bool
}

func (p *Pattern) validate() error {
	if p.Name == "" {
		return fmt.Errorf("a pattern needs a name")
	}
	if len(p.Matchers) == 0 {
		return fmt.Errorf("pattern %v needs at least one matcher", p.Name)
	}
	for _, m := range p.Matchers {
		if m.expr == "" {
			return fmt.Errorf("pattern %v has an empty matcher", p.Name)
		}
	}
	return nil
}

// InGroup reports whether the pattern belongs to the named group.
func (p *Pattern) InGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Validate checks a pattern list for well-formedness: every pattern is
// complete and no two patterns share a name.
func Validate(patterns []*Pattern) error {
	names := map[string]struct{}{}
	for _, pat := range patterns {
		if err := pat.validate(); err != nil {
			return err
		}
		if _, ok := names[pat.Name]; ok {
			return fmt.Errorf("duplicate pattern: %v", pat.Name)
		}
		names[pat.Name] = struct{}{}
	}
	return nil
}
