package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/catinrage/liquid/grammar/symbol"
)

// SemanticAction computes the semantic value of a reduction. It receives
// the payloads of the RHS in source order: a token for each terminal, the
// accumulated value for each variable. A nil action stands for the
// identity action the driver supplies.
type SemanticAction func(payloads []interface{}) interface{}

// RuleID identifies a rule by its shape, ignoring its action.
type RuleID [32]byte

func (id RuleID) String() string {
	return hex.EncodeToString(id[:8])
}

func genRuleID(lhs symbol.Symbol, rhs []symbol.Symbol) RuleID {
	var b strings.Builder
	b.WriteString(string(lhs))
	for _, sym := range rhs {
		b.WriteString("\x1f")
		b.WriteString(string(sym))
	}
	return RuleID(sha256.Sum256([]byte(b.String())))
}

// RuleNum is a rule's position in the grammar. The start rule is rule 0.
type RuleNum int

const ruleNumAugmented = RuleNum(-1)

func (n RuleNum) Int() int {
	return int(n)
}

// Rule is a production rule. RHS never contains ε; an empty production
// has an empty RHS and IsEmpty reports true.
type Rule struct {
	id     RuleID
	num    RuleNum
	lhs    symbol.Symbol
	rhs    []symbol.Symbol
	action SemanticAction

	// empty records that the rule was declared as lhs → ε.
	empty bool
}

func newRule(lhs symbol.Symbol, rhs []symbol.Symbol, action SemanticAction) (*Rule, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("a rule needs a LHS")
	}
	if lhs.IsEOF() || lhs.IsEmpty() {
		return nil, fmt.Errorf("%v cannot appear on a LHS", lhs)
	}
	if lhs.IsAugmented() {
		return nil, fmt.Errorf("%v is reserved for the augmented start rule", lhs)
	}

	empty := false
	if len(rhs) == 1 && rhs[0].IsEmpty() {
		empty = true
		rhs = nil
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("rule %v contains a nil symbol", lhs)
		}
		if sym.IsEmpty() {
			return nil, fmt.Errorf("rule %v: %v is only allowed as the single RHS element", lhs, symbol.Empty)
		}
	}

	return &Rule{
		id:     genRuleID(lhs, rhs),
		lhs:    lhs,
		rhs:    rhs,
		action: action,
		empty:  empty,
	}, nil
}

func (r *Rule) ID() RuleID {
	return r.id
}

func (r *Rule) Num() RuleNum {
	return r.num
}

func (r *Rule) LHS() symbol.Symbol {
	return r.lhs
}

// RHS is the rule's right-hand side with ε already stripped.
func (r *Rule) RHS() []symbol.Symbol {
	return r.rhs
}

// Arity is the number of stack symbols a reduction by this rule consumes.
func (r *Rule) Arity() int {
	return len(r.rhs)
}

func (r *Rule) IsEmpty() bool {
	return r.empty
}

func (r *Rule) Action() SemanticAction {
	return r.action
}

func (r *Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", r.lhs)
	if len(r.rhs) == 0 {
		fmt.Fprintf(&b, " %v", symbol.Empty)
		return b.String()
	}
	for _, sym := range r.rhs {
		fmt.Fprintf(&b, " %v", sym)
	}
	return b.String()
}

// ruleSet holds the grammar's rules in declaration order.
type ruleSet struct {
	rules     []*Rule
	lhs2Rules map[symbol.Symbol][]*Rule
	id2Rule   map[RuleID]*Rule
}

func newRuleSet() *ruleSet {
	return &ruleSet{
		lhs2Rules: map[symbol.Symbol][]*Rule{},
		id2Rule:   map[RuleID]*Rule{},
	}
}

func (rs *ruleSet) append(rule *Rule) {
	if _, ok := rs.id2Rule[rule.id]; ok {
		return
	}

	rule.num = RuleNum(len(rs.rules))
	rs.rules = append(rs.rules, rule)
	rs.lhs2Rules[rule.lhs] = append(rs.lhs2Rules[rule.lhs], rule)
	rs.id2Rule[rule.id] = rule
}

func (rs *ruleSet) findByID(id RuleID) (*Rule, bool) {
	rule, ok := rs.id2Rule[id]
	return rule, ok
}

func (rs *ruleSet) findByLHS(lhs symbol.Symbol) []*Rule {
	return rs.lhs2Rules[lhs]
}
