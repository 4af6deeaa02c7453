// Package css holds the resolved stylesheet produced by the evaluator: style
// rules with final selectors, declarations with computed values and plain
// at-rules. Nodes are built once and only read afterwards.
package css

import (
	"github.com/pipe01/sassy/internal/selector"
	"github.com/pipe01/sassy/internal/value"
)

type Node interface {
	node()
}

type Stylesheet struct {
	Nodes []Node
}

// Rule is a style rule. Nested rules have already been flattened, so its
// children are declarations and comments only.
type Rule struct {
	Selector selector.List
	Nodes    []Node
}

func (*Rule) node() {}

type Declaration struct {
	Name      string
	Value     value.Value
	Important bool

	// Custom properties print their value text untouched.
	Custom bool
}

func (*Declaration) node() {}

type AtRule struct {
	Name   string
	Params string

	HasBlock bool
	Nodes    []Node
}

func (*AtRule) node() {}

// Keyframe is a block inside @keyframes, whose selector is a stop like "from"
// or "50%" rather than a style selector.
type Keyframe struct {
	Selector string
	Nodes    []Node
}

func (*Keyframe) node() {}

type Comment struct {
	Text string
}

func (*Comment) node() {}

// IsEmpty reports whether n would print nothing: a rule or block at-rule whose
// children are all empty.
func IsEmpty(n Node) bool {
	switch n := n.(type) {
	case *Rule:
		return len(n.Selector) == 0 || allEmpty(n.Nodes)
	case *Keyframe:
		return allEmpty(n.Nodes)
	case *AtRule:
		return n.HasBlock && allEmpty(n.Nodes)
	}

	return false
}

func allEmpty(nodes []Node) bool {
	for _, n := range nodes {
		if !IsEmpty(n) {
			return false
		}
	}
	return true
}
