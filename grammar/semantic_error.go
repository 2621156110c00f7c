package grammar

import (
	"errors"
	"fmt"

	"github.com/catinrage/liquid/grammar/symbol"
)

var (
	semErrNoRules           = errors.New("a grammar needs at least one rule")
	semErrReservedName      = errors.New("name is reserved")
	semErrVariableIsPattern = errors.New("a symbol cannot be both a variable and a pattern")
	semErrEmptyGroup        = errors.New("no pattern belongs to the group")
)

// UndefinedSymbolError reports a RHS symbol that is neither a variable
// nor a pattern name nor ε.
type UndefinedSymbolError struct {
	Rule   *Rule
	Symbol symbol.Symbol
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol %v in rule %v", e.Symbol, e.Rule)
}

// UnreachableVariableError reports a variable no derivation from the
// start symbol ever reaches.
type UnreachableVariableError struct {
	Name symbol.Symbol
}

func (e *UnreachableVariableError) Error() string {
	return fmt.Sprintf("unreachable variable: %v", e.Name)
}
