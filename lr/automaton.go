package lr

import (
	"fmt"

	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/symbol"
)

// Class selects the automaton construction.
type Class string

const (
	// ClassCLR builds the canonical LR(1) automaton: one state per
	// distinct kernel, look-aheads included.
	ClassCLR = Class("clr")

	// ClassLALR merges states whose kernels agree modulo look-aheads and
	// unions the look-aheads, re-expanding affected states until the
	// merge cascade settles.
	ClassLALR = Class("lalr")
)

// Automaton is the LR automaton of a grammar. It owns all states; states
// refer to each other by state number only.
type Automaton struct {
	class  Class
	gram   *grammar.Grammar
	states []*State

	// byFull looks states up by full kernel identity (CLR).
	byFull map[KernelID]StateNum

	// byCore looks states up by kernel core identity (LALR).
	byCore map[KernelID]StateNum

	first *firstCache
	queue []StateNum
}

// NewAutomaton builds the automaton of the given class. State 0's kernel
// is the single augmented item AUG →・start, {$}.
func NewAutomaton(gram *grammar.Grammar, class Class) (*Automaton, error) {
	if class != ClassCLR && class != ClassLALR {
		return nil, fmt.Errorf("unknown automaton class: %v", class)
	}

	a := &Automaton{
		class:  class,
		gram:   gram,
		byFull: map[KernelID]StateNum{},
		byCore: map[KernelID]StateNum{},
		first:  newFirstCache(),
	}

	initialItem, err := newItem(gram.Augmented(), 0, symbol.NewSet(symbol.EOF))
	if err != nil {
		return nil, err
	}
	k, err := newKernel([]*Item{initialItem})
	if err != nil {
		return nil, err
	}
	a.register(newState(k))

	if err := a.populate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Automaton) Class() Class {
	return a.class
}

func (a *Automaton) Grammar() *grammar.Grammar {
	return a.gram
}

// States returns all states ordered by state number.
func (a *Automaton) States() []*State {
	return a.states
}

func (a *Automaton) State(num StateNum) (*State, bool) {
	if num < 0 || num.Int() >= len(a.states) {
		return nil, false
	}
	return a.states[num.Int()], true
}

// register assigns the next state number and indexes the kernel.
func (a *Automaton) register(s *State) StateNum {
	s.num = StateNum(len(a.states))
	a.states = append(a.states, s)
	a.byFull[s.kernel.fullID] = s.num
	a.byCore[s.kernel.coreID] = s.num
	a.enqueue(s.num)
	tracer().Debugf("state %v registered (%v kernel items)", s.num, len(s.kernel.items))
	return s.num
}

func (a *Automaton) enqueue(num StateNum) {
	for _, queued := range a.queue {
		if queued == num {
			return
		}
	}
	a.queue = append(a.queue, num)
}

// populate expands states breadth-first. A LALR merge pushes the merged
// state back onto the queue, so the loop also drives the re-expansion
// cascade until no state needs another pass.
func (a *Automaton) populate() error {
	for len(a.queue) > 0 {
		num := a.queue[0]
		a.queue = a.queue[1:]

		s := a.states[num.Int()]
		if s.status == stateFresh {
			if err := s.resolve(a.gram, a.first); err != nil {
				return err
			}
		}
		if err := a.expand(s); err != nil {
			return err
		}
		s.status = stateExpanded
	}
	return nil
}

// expand installs a transition for every expandable symbol of the state.
func (a *Automaton) expand(s *State) error {
	for _, sym := range s.expandables {
		kItems := []*Item{}
		for _, item := range s.closure {
			if item.dottedSymbol != sym {
				continue
			}
			advanced, err := item.advance()
			if err != nil {
				return err
			}
			kItems = append(kItems, advanced)
		}

		k, err := newKernel(kItems)
		if err != nil {
			return err
		}

		var target StateNum
		switch a.class {
		case ClassCLR:
			target = a.installCLR(k)
		case ClassLALR:
			target = a.installLALR(k)
		}
		s.next.Put(sym, target)
	}
	return nil
}

// installCLR reuses a state whose kernel matches fully, look-aheads
// included, and registers a new state otherwise.
func (a *Automaton) installCLR(k *kernel) StateNum {
	if num, ok := a.byFull[k.fullID]; ok {
		return num
	}
	return a.register(newState(k))
}

// installLALR reuses a state whose kernel matches by core. When the
// existing kernel does not already cover the candidate's look-aheads,
// they are unioned in and the state goes back to fresh so it re-resolves
// and re-expands; its successors pick the new look-aheads up the same
// way, transitively.
func (a *Automaton) installLALR(k *kernel) StateNum {
	num, ok := a.byCore[k.coreID]
	if !ok {
		return a.register(newState(k))
	}

	existing := a.states[num.Int()]
	covered := true
	for i, item := range existing.kernel.items {
		if !item.lookAhead.Covers(k.items[i].lookAhead) {
			covered = false
			break
		}
	}
	if covered {
		return num
	}

	for i, item := range existing.kernel.items {
		item.lookAhead.Merge(k.items[i].lookAhead)
	}
	existing.status = stateFresh
	a.enqueue(num)
	tracer().Debugf("state %v look-aheads widened, re-expanding", num)
	return num
}
