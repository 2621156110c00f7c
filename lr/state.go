package lr

import (
	"fmt"
	"strconv"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/symbol"
)

// StateNum identifies a state. States are numbered in registration order
// starting at 0.
type StateNum int

const StateNumInitial = StateNum(0)

func (n StateNum) Int() int {
	return int(n)
}

func (n StateNum) String() string {
	return strconv.Itoa(int(n))
}

type stateStatus string

const (
	// stateFresh: the kernel is set but the closure is not computed yet.
	// A LALR merge pushes a state back to fresh.
	stateFresh = stateStatus("fresh")

	// stateClosed: closure and look-aheads are computed.
	stateClosed = stateStatus("closed")

	// stateExpanded: transitions are installed.
	stateExpanded = stateStatus("expanded")
)

// State is a node of the LR automaton: a kernel, its closure, and the
// transitions leaving it.
type State struct {
	num    StateNum
	kernel *kernel

	// closure lists the kernel items followed by the items the closure
	// derives, core-unique, in discovery order.
	closure []*Item

	// closureByLHS indexes closure items by the LHS of their rule. The
	// look-ahead pass updates items through this index.
	closureByLHS map[symbol.Symbol][]*Item

	// expandables lists the distinct dotted symbols of the closure in the
	// order they first appear. Transition enumeration follows this order.
	expandables []symbol.Symbol

	// next maps each expandable symbol to the target state. Keys keep
	// their first-appearance order.
	next *linkedhashmap.Map

	status stateStatus
}

func newState(k *kernel) *State {
	return &State{
		kernel: k,
		next:   linkedhashmap.New(),
		status: stateFresh,
	}
}

func (s *State) Num() StateNum {
	return s.num
}

// Kernel returns the kernel items sorted by item ID.
func (s *State) Kernel() []*Item {
	return s.kernel.items
}

// Closure returns the closure items, kernel items first.
func (s *State) Closure() []*Item {
	return s.closure
}

// Expandables returns the distinct dotted symbols of the closure in
// first-appearance order.
func (s *State) Expandables() []symbol.Symbol {
	return s.expandables
}

// Transition returns the target of the transition on sym.
func (s *State) Transition(sym symbol.Symbol) (StateNum, bool) {
	v, ok := s.next.Get(sym)
	if !ok {
		return StateNumInitial, false
	}
	return v.(StateNum), true
}

// EachTransition visits the transitions in first-appearance order.
func (s *State) EachTransition(f func(sym symbol.Symbol, next StateNum)) {
	it := s.next.Iterator()
	for it.Next() {
		f(it.Key().(symbol.Symbol), it.Value().(StateNum))
	}
}

// resolve computes the closure and its look-aheads. The closure pass
// collects items by core with empty look-aheads; the second pass fills
// look-aheads to a fixed point, so nothing over-propagates through items
// discovered late.
func (s *State) resolve(gram *grammar.Grammar, cache *firstCache) error {
	if err := s.close(gram); err != nil {
		return err
	}
	if err := s.fillLookAheads(gram, cache); err != nil {
		return err
	}

	s.expandables = nil
	seen := symbol.Set{}
	for _, item := range s.closure {
		sym := item.DottedSymbol()
		if sym.IsNil() {
			continue
		}
		if seen.Add(sym) {
			s.expandables = append(s.expandables, sym)
		}
	}

	s.next = linkedhashmap.New()
	s.status = stateClosed
	return nil
}

func (s *State) close(gram *grammar.Grammar) error {
	items := []*Item{}
	knownItems := map[ItemID]struct{}{}
	uncheckedItems := []*Item{}
	for _, item := range s.kernel.items {
		items = append(items, item)
		knownItems[item.id] = struct{}{}
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*Item{}
		for _, item := range uncheckedItems {
			if !gram.IsVariable(item.dottedSymbol) {
				continue
			}

			for _, rule := range gram.RulesByLHS(item.dottedSymbol) {
				derived, err := newItem(rule, 0, nil)
				if err != nil {
					return err
				}
				if _, exist := knownItems[derived.id]; exist {
					continue
				}
				items = append(items, derived)
				knownItems[derived.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, derived)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	s.closure = items
	s.closureByLHS = map[symbol.Symbol][]*Item{}
	for _, item := range items {
		// Only items the closure derives receive look-aheads; a kernel
		// item with the same LHS got its own from the predecessor state.
		if item.dot != 0 {
			continue
		}
		lhs := item.rule.LHS()
		s.closureByLHS[lhs] = append(s.closureByLHS[lhs], item)
	}
	return nil
}

// fillLookAheads propagates look-aheads over the closure: for every item
// A → α・B β with look-aheads L, every derived (dot 0) closure item with
// LHS B accumulates FIRST(β); when β can derive ε, L as well. The worklist
// drains when no look-ahead set grows anymore; sets only grow and are
// bounded by the terminal alphabet.
func (s *State) fillLookAheads(gram *grammar.Grammar, cache *firstCache) error {
	// Every closure item contributes its FIRST(β) part even when its own
	// look-ahead set never grows, so the whole closure seeds the worklist.
	worklist := make([]*Item, 0, len(s.closure))
	worklist = append(worklist, s.closure...)

	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]

		sym := item.dottedSymbol
		if !gram.IsVariable(sym) {
			continue
		}

		fst, err := cache.rest(gram, item)
		if err != nil {
			return err
		}

		contribution := fst.symbols.Clone()
		if fst.empty {
			contribution.Merge(item.lookAhead)
		}

		for _, target := range s.closureByLHS[sym] {
			if target.lookAhead.Merge(contribution) {
				worklist = append(worklist, target)
			}
		}
	}

	return nil
}

// firstCache memoizes FIRST over item remainders (the RHS portion after
// the dotted symbol). Entries are keyed by item core, so they are valid
// across states and automaton passes.
type firstCache struct {
	entries map[string]*firstCacheEntry
}

type firstCacheEntry struct {
	symbols symbol.Set
	empty   bool
}

func newFirstCache() *firstCache {
	return &firstCache{
		entries: map[string]*firstCacheEntry{},
	}
}

// rest returns FIRST(β) for an item A → α・B β.
func (c *firstCache) rest(gram *grammar.Grammar, item *Item) (*firstCacheEntry, error) {
	key := item.coreKey()
	if e, ok := c.entries[key]; ok {
		return e, nil
	}

	beta := item.rule.RHS()[item.dot+1:]
	syms, empty, err := gram.FirstOfSeq(beta)
	if err != nil {
		return nil, fmt.Errorf("FIRST(%v) failed: %w", item, err)
	}

	e := &firstCacheEntry{
		symbols: syms,
		empty:   empty,
	}
	c.entries[key] = e
	return e, nil
}
