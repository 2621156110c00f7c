package grammar

import (
	"fmt"

	"github.com/catinrage/liquid/grammar/symbol"
)

type firstEntry struct {
	symbols symbol.Set
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: symbol.Set{},
		empty:   false,
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	return e.symbols.Add(sym)
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	return e.symbols.Merge(target.symbols)
}

type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

func newFirstSet(rules *ruleSet) *firstSet {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, rule := range rules.rules {
		if _, ok := fst.set[rule.lhs]; ok {
			continue
		}
		fst.set[rule.lhs] = newFirstEntry()
	}
	return fst
}

func (fst *firstSet) findBySymbol(sym symbol.Symbol) *firstEntry {
	return fst.set[sym]
}

// findOfSeq computes FIRST over a symbol sequence. The entry's empty flag
// is set when every element of the sequence can derive ε.
func (fst *firstSet) findOfSeq(seq []symbol.Symbol) (*firstEntry, error) {
	entry := newFirstEntry()
	for _, sym := range seq {
		e := fst.findBySymbol(sym)
		if e == nil {
			// Not a variable, so the symbol is its own FIRST.
			entry.add(sym)
			return entry, nil
		}

		entry.mergeExceptEmpty(e)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func genFirstSet(rules *ruleSet) (*firstSet, error) {
	fst := newFirstSet(rules)
	for {
		more := false
		for _, rule := range rules.rules {
			e := fst.findBySymbol(rule.lhs)
			if e == nil {
				return nil, fmt.Errorf("FIRST entry not found: %v", rule.lhs)
			}
			changed, err := genRuleFirstEntry(fst, e, rule)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst, nil
}

func genRuleFirstEntry(fst *firstSet, acc *firstEntry, rule *Rule) (bool, error) {
	if rule.IsEmpty() {
		return acc.addEmpty(), nil
	}

	for _, sym := range rule.rhs {
		e := fst.findBySymbol(sym)
		if e == nil {
			// Terminal symbol.
			return acc.add(sym), nil
		}

		changed := acc.mergeExceptEmpty(e)
		if !e.empty {
			return changed, nil
		}
	}
	return acc.addEmpty(), nil
}
