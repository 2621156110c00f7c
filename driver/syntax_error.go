package driver

import (
	"fmt"
	"strings"

	"github.com/catinrage/liquid/driver/lexer"
	"github.com/catinrage/liquid/grammar/symbol"
)

// SyntaxError reports a token no table cell covers. Expected is a
// best-effort suggestion set; callers should treat it as advisory.
type SyntaxError struct {
	Token    *lexer.Token
	Expected []symbol.Symbol
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Token.EOF() {
		fmt.Fprintf(&b, "unexpected end of input at %v", e.Token.Start)
	} else {
		fmt.Fprintf(&b, "unexpected token at %v: %q (%v)", e.Token.Start, e.Token.Lexeme, e.Token.Type)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ", expected: ")
		for i, sym := range e.Expected {
			if i > 0 {
				fmt.Fprintf(&b, ", ")
			}
			fmt.Fprintf(&b, "%v", sym)
		}
	}
	return b.String()
}

// IterationLimitError reports a parse that exceeded the configured step
// ceiling.
type IterationLimitError struct {
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("parsing aborted after %v iterations", e.Limit)
}
