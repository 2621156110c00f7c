package lr

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/catinrage/liquid/grammar/symbol"
)

// WriteDescription renders the automaton, the table's conflict report,
// and every state with its items and actions in a human-readable form.
func (b *TableBuilder) WriteDescription(w io.Writer, tab *ParsingTable) {
	gram := b.automaton.Grammar()

	conflicts := map[StateNum][]Conflict{}
	for _, con := range tab.Conflicts {
		switch c := con.(type) {
		case *ShiftReduceConflict:
			conflicts[c.State] = append(conflicts[c.State], c)
		case *ReduceReduceConflict:
			conflicts[c.State] = append(conflicts[c.State], c)
		}
	}

	fmt.Fprintf(w, "# Class\n\n%v\n\n", b.automaton.Class())

	fmt.Fprintf(w, "# Conflicts\n\n")
	if len(tab.Conflicts) > 0 {
		fmt.Fprintf(w, "%v conflicts:\n\n", len(tab.Conflicts))
		for _, conflict := range tab.Conflicts {
			switch c := conflict.(type) {
			case *ShiftReduceConflict:
				fmt.Fprintf(w, "%v: shift/reduce conflict (shift %v, reduce %v) on %v, adopted %v\n",
					c.State, c.NextState, c.Rule.Num(), c.Symbol, c.Adopted)
			case *ReduceReduceConflict:
				fmt.Fprintf(w, "%v: reduce/reduce conflict (", c.State)
				for i, rule := range c.Rules {
					if i > 0 {
						fmt.Fprintf(w, ", ")
					}
					fmt.Fprintf(w, "reduce %v", rule.Num())
				}
				fmt.Fprintf(w, ") on %v, adopted reduce %v\n", c.Symbol, c.Adopted.Num())
			}
		}
		fmt.Fprintf(w, "\n")
	} else {
		fmt.Fprintf(w, "no conflicts\n\n")
	}

	fmt.Fprintf(w, "# Terminals\n\n")
	terms := gram.Terminals()
	fmt.Fprintf(w, "%v symbols:\n\n", len(terms))
	for _, sym := range terms {
		if prec := gram.TerminalPrecedence(sym); prec > 0 {
			fmt.Fprintf(w, "    %v (precedence %v, %v)\n", sym, prec, gram.TerminalAssociativity(sym))
		} else {
			fmt.Fprintf(w, "    %v\n", sym)
		}
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "# Rules\n\n")
	rules := gram.Rules()
	fmt.Fprintf(w, "%v rules:\n\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(w, "%4v %v\n", rule.Num(), rule)
	}

	fmt.Fprintf(w, "\n# States\n\n")
	fmt.Fprintf(w, "%v states:\n\n", len(b.automaton.States()))

	for _, state := range b.automaton.States() {
		fmt.Fprintf(w, "state %v\n", state.Num())
		for _, item := range state.Closure() {
			fmt.Fprintf(w, "    %v\n", item)
		}
		fmt.Fprintf(w, "\n")

		var shiftRecs []string
		var reduceRecs []string
		var gotoRecs []string
		var accRec string
		state.EachTransition(func(sym symbol.Symbol, next StateNum) {
			if gram.IsVariable(sym) {
				gotoRecs = append(gotoRecs, fmt.Sprintf("goto   %4v on %v", next, sym))
			} else {
				shiftRecs = append(shiftRecs, fmt.Sprintf("shift  %4v on %v", next, sym))
			}
		})
		for _, item := range state.Closure() {
			if !item.Reducible() {
				continue
			}
			if item.Rule().LHS().IsAugmented() {
				accRec = "accept on $"
				continue
			}
			for _, la := range item.LookAhead().Sorted() {
				reduceRecs = append(reduceRecs, fmt.Sprintf("reduce %4v on %v", item.Rule().Num(), la))
			}
		}

		for _, rec := range shiftRecs {
			fmt.Fprintf(w, "    %v\n", rec)
		}
		for _, rec := range reduceRecs {
			fmt.Fprintf(w, "    %v\n", rec)
		}
		for _, rec := range gotoRecs {
			fmt.Fprintf(w, "    %v\n", rec)
		}
		if accRec != "" {
			fmt.Fprintf(w, "    %v\n", accRec)
		}
		fmt.Fprintf(w, "\n")

		cons, ok := conflicts[state.Num()]
		if ok {
			syms := treeset.NewWith(utils.StringComparator)
			for _, con := range cons {
				switch c := con.(type) {
				case *ShiftReduceConflict:
					syms.Add(string(c.Symbol))
				case *ReduceReduceConflict:
					syms.Add(string(c.Symbol))
				}
			}
			for _, sym := range syms.Values() {
				act, ok := tab.Action(state.Num(), symbol.Symbol(sym.(string)))
				if !ok {
					continue
				}
				fmt.Fprintf(w, "    adopted %v on %v\n", act, sym)
			}
			fmt.Fprintf(w, "\n")
		}
	}
}
