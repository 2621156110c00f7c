package lr

import (
	"fmt"
	"sort"

	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/lexical"
	"github.com/catinrage/liquid/grammar/symbol"
)

// ActionType is one of the four parse-table action kinds.
type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeGoTo   = ActionType("goto")
	ActionTypeAccept = ActionType("accept")
)

// Action is a parse-table cell. State is set for shift and goto, Rule for
// reduce.
type Action struct {
	Type  ActionType
	State StateNum
	Rule  *grammar.Rule
}

func shiftAction(next StateNum) Action {
	return Action{Type: ActionTypeShift, State: next}
}

func goToAction(next StateNum) Action {
	return Action{Type: ActionTypeGoTo, State: next}
}

func reduceAction(rule *grammar.Rule) Action {
	return Action{Type: ActionTypeReduce, Rule: rule}
}

func acceptAction() Action {
	return Action{Type: ActionTypeAccept}
}

func (a Action) String() string {
	switch a.Type {
	case ActionTypeShift:
		return fmt.Sprintf("shift %v", a.State)
	case ActionTypeGoTo:
		return fmt.Sprintf("goto %v", a.State)
	case ActionTypeReduce:
		return fmt.Sprintf("reduce %v", a.Rule.Num())
	case ActionTypeAccept:
		return "accept"
	}
	return "error"
}

// Favor breaks shift/reduce ties that precedence and associativity leave
// open. FavorNone turns such ties into construction errors.
type Favor string

const (
	FavorNone   = Favor("none")
	FavorShift  = Favor("shift")
	FavorReduce = Favor("reduce")
)

// Conflict is a conflict the builder resolved. Unresolved conflicts
// surface as ConflictError instead.
type Conflict interface {
	conflict()
}

// ShiftReduceConflict records a shift/reduce conflict and the adopted
// action.
type ShiftReduceConflict struct {
	State     StateNum
	Symbol    symbol.Symbol
	NextState StateNum
	Rule      *grammar.Rule
	Adopted   ActionType
}

func (c *ShiftReduceConflict) conflict() {}

// ReduceReduceConflict records a reduce/reduce conflict and the adopted
// rule.
type ReduceReduceConflict struct {
	State   StateNum
	Symbol  symbol.Symbol
	Rules   []*grammar.Rule
	Adopted *grammar.Rule
}

func (c *ReduceReduceConflict) conflict() {}

var (
	_ Conflict = &ShiftReduceConflict{}
	_ Conflict = &ReduceReduceConflict{}
)

// ConflictKind is the subkind of a ConflictError.
type ConflictKind string

const (
	ConflictKindShiftReduce  = ConflictKind("shift/reduce")
	ConflictKindReduceReduce = ConflictKind("reduce/reduce")
)

// ConflictError reports a conflict precedence and associativity could not
// resolve. The grammar is not LR(1) under the chosen class.
type ConflictError struct {
	Kind   ConflictKind
	State  StateNum
	Symbol symbol.Symbol
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("grammar is not LR(1): %v conflict on %v in state %v", e.Kind, e.Symbol, e.State)
}

// ParsingTable maps (state, symbol) to the single action the driver
// takes. Terminal cells hold shift/reduce/accept, variable cells hold
// goto.
type ParsingTable struct {
	rows     []map[symbol.Symbol]Action
	expected [][]symbol.Symbol

	InitialState StateNum

	// Conflicts lists the conflicts resolved during assembly.
	Conflicts []Conflict
}

// Action returns the cell for (state, sym). The second result is false
// when the cell is empty: a syntax error for the driver.
func (t *ParsingTable) Action(state StateNum, sym symbol.Symbol) (Action, bool) {
	if state < 0 || state.Int() >= len(t.rows) {
		return Action{}, false
	}
	act, ok := t.rows[state.Int()][sym]
	return act, ok
}

// Expected returns the suggestion set of a state: terminals the state can
// shift plus the FIRST sets of variables it has a goto for, with ε and $
// removed.
func (t *ParsingTable) Expected(state StateNum) []symbol.Symbol {
	if state < 0 || state.Int() >= len(t.expected) {
		return nil
	}
	return t.expected[state.Int()]
}

// cell accumulates every action candidate for a (state, terminal) pair
// before resolution.
type cell struct {
	shift   *Action
	reduces []*grammar.Rule
	accept  bool
}

// TableBuilder assembles the parsing table of an automaton.
type TableBuilder struct {
	automaton *Automaton
	favor     Favor
	conflicts []Conflict
}

func NewTableBuilder(a *Automaton, favor Favor) *TableBuilder {
	if favor == "" {
		favor = FavorNone
	}
	return &TableBuilder{
		automaton: a,
		favor:     favor,
	}
}

// Build populates every cell and then resolves multi-action cells with
// operator precedence and associativity. A cell resolution can fail with
// ConflictError, which aborts construction.
func (b *TableBuilder) Build() (*ParsingTable, error) {
	gram := b.automaton.Grammar()
	states := b.automaton.States()

	tab := &ParsingTable{
		rows:         make([]map[symbol.Symbol]Action, len(states)),
		expected:     make([][]symbol.Symbol, len(states)),
		InitialState: StateNumInitial,
	}

	for _, state := range states {
		cells := map[symbol.Symbol]*cell{}
		row := map[symbol.Symbol]Action{}

		state.EachTransition(func(sym symbol.Symbol, next StateNum) {
			if gram.IsVariable(sym) {
				row[sym] = goToAction(next)
				return
			}
			act := shiftAction(next)
			cells[sym] = &cell{shift: &act}
		})

		for _, item := range state.Closure() {
			if !item.Reducible() {
				continue
			}
			if item.Rule().LHS().IsAugmented() {
				c := cells[symbol.EOF]
				if c == nil {
					c = &cell{}
					cells[symbol.EOF] = c
				}
				c.accept = true
				continue
			}
			for la := range item.LookAhead() {
				c := cells[la]
				if c == nil {
					c = &cell{}
					cells[la] = c
				}
				c.reduces = append(c.reduces, item.Rule())
			}
		}

		for sym, c := range cells {
			act, err := b.resolve(state.Num(), sym, c)
			if err != nil {
				return nil, err
			}
			row[sym] = act
		}

		tab.rows[state.Num().Int()] = row
		tab.expected[state.Num().Int()] = expectedTerminals(gram, row)
	}

	tab.Conflicts = b.conflicts
	return tab, nil
}

// resolve reduces a cell's candidates to a single action.
func (b *TableBuilder) resolve(state StateNum, sym symbol.Symbol, c *cell) (Action, error) {
	gram := b.automaton.Grammar()

	if c.accept {
		if c.shift != nil || len(c.reduces) > 0 {
			return Action{}, &ConflictError{
				Kind:   ConflictKindReduceReduce,
				State:  state,
				Symbol: sym,
			}
		}
		return acceptAction(), nil
	}

	// Reduce/reduce first: the surviving reduce then competes with the
	// shift, if any.
	var reduce *grammar.Rule
	if len(c.reduces) > 0 {
		reduce = c.reduces[0]
		if len(c.reduces) > 1 {
			sorted := make([]*grammar.Rule, len(c.reduces))
			copy(sorted, c.reduces)
			sort.Slice(sorted, func(i, j int) bool {
				pi, pj := gram.RulePrecedence(sorted[i]), gram.RulePrecedence(sorted[j])
				if pi != pj {
					return pi > pj
				}
				return sorted[i].Num() < sorted[j].Num()
			})
			if gram.RulePrecedence(sorted[0]) == gram.RulePrecedence(sorted[1]) {
				tracer().Debugf("state %v: unresolved reduce/reduce on %v", state, sym)
				return Action{}, &ConflictError{
					Kind:   ConflictKindReduceReduce,
					State:  state,
					Symbol: sym,
				}
			}
			reduce = sorted[0]
			b.conflicts = append(b.conflicts, &ReduceReduceConflict{
				State:   state,
				Symbol:  sym,
				Rules:   sorted,
				Adopted: reduce,
			})
		}
	}

	if c.shift == nil {
		return reduceAction(reduce), nil
	}
	if reduce == nil {
		return *c.shift, nil
	}

	adopted, err := b.resolveShiftReduce(state, sym, reduce)
	if err != nil {
		return Action{}, err
	}
	b.conflicts = append(b.conflicts, &ShiftReduceConflict{
		State:     state,
		Symbol:    sym,
		NextState: c.shift.State,
		Rule:      reduce,
		Adopted:   adopted,
	})
	tracer().Debugf("state %v: shift/reduce on %v resolved to %v", state, sym, adopted)
	if adopted == ActionTypeShift {
		return *c.shift, nil
	}
	return reduceAction(reduce), nil
}

// resolveShiftReduce applies the precedence rules: the higher precedence
// side wins; on equal precedence left associativity reduces, right
// associativity shifts, and no associativity falls back to the favor
// setting or fails.
func (b *TableBuilder) resolveShiftReduce(state StateNum, sym symbol.Symbol, rule *grammar.Rule) (ActionType, error) {
	gram := b.automaton.Grammar()
	symPrec := gram.TerminalPrecedence(sym)
	rulePrec := gram.RulePrecedence(rule)

	switch {
	case symPrec > rulePrec:
		return ActionTypeShift, nil
	case symPrec < rulePrec:
		return ActionTypeReduce, nil
	}

	switch gram.TerminalAssociativity(sym) {
	case lexical.AssocTypeLeft:
		return ActionTypeReduce, nil
	case lexical.AssocTypeRight:
		return ActionTypeShift, nil
	}

	switch b.favor {
	case FavorShift:
		return ActionTypeShift, nil
	case FavorReduce:
		return ActionTypeReduce, nil
	}

	return "", &ConflictError{
		Kind:   ConflictKindShiftReduce,
		State:  state,
		Symbol: sym,
	}
}

func expectedTerminals(gram *grammar.Grammar, row map[symbol.Symbol]Action) []symbol.Symbol {
	set := symbol.Set{}
	for sym, act := range row {
		switch act.Type {
		case ActionTypeShift:
			set.Add(sym)
		case ActionTypeGoTo:
			fst, _ := gram.First(sym)
			set.Merge(fst)
		}
	}
	delete(set, symbol.Empty)
	delete(set, symbol.EOF)
	return set.Sorted()
}
