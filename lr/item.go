package lr

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/symbol"
)

// ItemID is the core identity of an item: its rule and dot position,
// look-aheads excluded.
type ItemID [32]byte

func (id ItemID) String() string {
	return fmt.Sprintf("%x", id.num())
}

func (id ItemID) num() uint32 {
	return binary.LittleEndian.Uint32(id[:])
}

// Item is an LR(1) item: a rule, a dot position, and a look-ahead set.
//
// E → E + T
//
// Dot | Dotted Symbol | Item
// ----+---------------+------------
// 0   | E             | E →・E + T
// 1   | +             | E → E・+ T
// 2   | T             | E → E +・T
// 3   | Nil           | E → E + T・
type Item struct {
	id   ItemID
	rule *grammar.Rule

	dot          int
	dottedSymbol symbol.Symbol

	// When initial is true, the item is AUG →・start.
	initial bool

	// When reducible is true, the dot sits at the end of the RHS.
	reducible bool

	// When kernel is true, the item is a kernel item.
	kernel bool

	// lookAhead holds the terminals under which the item may reduce. It
	// is never aliased between items; advancing and cloning copy it.
	lookAhead symbol.Set
}

func newItem(rule *grammar.Rule, dot int, lookAhead symbol.Set) (*Item, error) {
	if rule == nil {
		return nil, fmt.Errorf("rule must be non-nil")
	}
	if dot < 0 || dot > rule.Arity() {
		return nil, fmt.Errorf("dot must be between 0 and %v", rule.Arity())
	}

	var id ItemID
	{
		b := []byte{}
		rid := rule.ID()
		b = append(b, rid[:]...)
		bDot := make([]byte, 8)
		binary.LittleEndian.PutUint64(bDot, uint64(dot))
		b = append(b, bDot...)
		id = sha256.Sum256(b)
	}

	dottedSymbol := symbol.Nil
	if dot < rule.Arity() {
		dottedSymbol = rule.RHS()[dot]
	}

	if lookAhead == nil {
		lookAhead = symbol.Set{}
	}

	return &Item{
		id:           id,
		rule:         rule,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		initial:      rule.LHS().IsAugmented() && dot == 0,
		reducible:    dot == rule.Arity(),
		kernel:       rule.LHS().IsAugmented() && dot == 0 || dot > 0,
		lookAhead:    lookAhead,
	}, nil
}

func (i *Item) ID() ItemID {
	return i.id
}

func (i *Item) Rule() *grammar.Rule {
	return i.rule
}

func (i *Item) Dot() int {
	return i.dot
}

// DottedSymbol is the symbol right after the dot, or Nil when the item
// is completed.
func (i *Item) DottedSymbol() symbol.Symbol {
	return i.dottedSymbol
}

// NextNextSymbol is the symbol after the dotted symbol, or Nil.
func (i *Item) NextNextSymbol() symbol.Symbol {
	if i.dot+1 < i.rule.Arity() {
		return i.rule.RHS()[i.dot+1]
	}
	return symbol.Nil
}

func (i *Item) Reducible() bool {
	return i.reducible
}

func (i *Item) Kernel() bool {
	return i.kernel
}

func (i *Item) LookAhead() symbol.Set {
	return i.lookAhead
}

// Clone copies the item with its own look-ahead set.
func (i *Item) Clone() *Item {
	c := *i
	c.lookAhead = i.lookAhead.Clone()
	return &c
}

// advance moves the dot over the dotted symbol. The look-ahead set is
// copied, never shared.
func (i *Item) advance() (*Item, error) {
	return newItem(i.rule, i.dot+1, i.lookAhead.Clone())
}

// CoreEqual ignores look-aheads.
func (i *Item) CoreEqual(other *Item) bool {
	return i.id == other.id
}

// Equal compares the core and the look-ahead sets.
func (i *Item) Equal(other *Item) bool {
	return i.id == other.id && i.lookAhead.Equal(other.lookAhead)
}

// coreKey is the cache key for FIRST computations over the item's
// remainder. It depends only on the core.
func (i *Item) coreKey() string {
	return fmt.Sprintf("%v:%v", i.rule.ID(), i.dot)
}

func (i *Item) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", i.rule.LHS())
	rhs := i.rule.RHS()
	for n, sym := range rhs {
		if n == i.dot {
			fmt.Fprintf(&b, " ・")
		}
		fmt.Fprintf(&b, " %v", sym)
	}
	if i.dot == len(rhs) {
		fmt.Fprintf(&b, " ・")
	}
	if len(i.lookAhead) > 0 {
		fmt.Fprintf(&b, ", %v", i.lookAhead)
	}
	return b.String()
}

// KernelID identifies a kernel. A kernel has two identities: the core ID
// ignores look-aheads, the full ID includes them.
type KernelID [32]byte

func (id KernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type kernel struct {
	coreID KernelID
	fullID KernelID
	items  []*Item
}

// newKernel builds a kernel from kernel items. Items with the same core
// are merged, their look-aheads unioned; the result is sorted by item ID
// so kernel identity is independent of discovery order.
func newKernel(items []*Item) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel needs at least one item")
	}

	var sortedItems []*Item
	{
		m := map[ItemID]*Item{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item)
			}
			if existing, ok := m[item.id]; ok {
				existing.lookAhead.Merge(item.lookAhead)
				continue
			}
			m[item.id] = item
		}
		sortedItems = make([]*Item, 0, len(m))
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return sortedItems[i].id.num() < sortedItems[j].id.num()
		})
	}

	var coreID, fullID KernelID
	{
		b := []byte{}
		for _, item := range sortedItems {
			b = append(b, item.id[:]...)
		}
		coreID = sha256.Sum256(b)

		for _, item := range sortedItems {
			b = append(b, []byte(item.lookAhead.String())...)
		}
		fullID = sha256.Sum256(b)
	}

	return &kernel{
		coreID: coreID,
		fullID: fullID,
		items:  sortedItems,
	}, nil
}
