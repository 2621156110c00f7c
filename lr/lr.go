// Package lr builds canonical LR(1) and LALR(1) automata and assembles
// parsing tables with precedence-driven conflict resolution.
package lr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to a global core-tracer.
func tracer() tracing.Trace {
	return tracing.Select("liquid.lr")
}
