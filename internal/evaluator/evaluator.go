// Package evaluator runs a parsed stylesheet: it expands variables, control
// flow, mixins, functions, imports and nesting, and produces the resolved CSS
// tree with every @extend applied.
package evaluator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/css"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/parser/ast"
	"github.com/pipe01/sassy/internal/selector"
	"github.com/pipe01/sassy/internal/value"
	"github.com/pipe01/sassy/internal/workspace"
)

const maxCallDepth = 100

type Options struct {
	// Rand backs random() and unique-id(). A nil Rand is seeded from the clock.
	Rand *rand.Rand

	// Logger receives @warn and @debug output and extend warnings.
	Logger commonlog.Logger
}

// EvalError situates a failure at the node that caused it.
type EvalError struct {
	Inner    error
	Location lexer.Location
}

func (e *EvalError) Unwrap() error {
	return e.Inner
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s at %s", e.Inner, &e.Location)
}

func (e *EvalError) At() lexer.Location {
	return e.Location
}

func (e *EvalError) Kind() serrors.Kind {
	return serrors.KindOf(e.Inner, serrors.KindType)
}

type located interface {
	At() lexer.Location
}

type failure struct {
	kind serrors.Kind
	msg  string
}

func (e *failure) Error() string {
	return e.msg
}

func (e *failure) Kind() serrors.Kind {
	return e.kind
}

func failf(kind serrors.Kind, format string, args ...any) error {
	return &failure{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// frame describes where output produced by the current node goes.
type frame struct {
	// container receives style rules and bubbled at-rules.
	container *[]css.Node

	// decls receives declarations, or is nil where they aren't allowed.
	decls *[]css.Node

	// selector is the resolved selector of the enclosing style rule.
	selector selector.List

	// media is the query of the enclosing @media rule, which lives in
	// mediaContainer.
	media          string
	mediaContainer *[]css.Node

	keyframes  bool
	propPrefix string
}

type contentBlock struct {
	block *ast.ContentBlock
	scope *scope
	outer *contentBlock
}

type context struct {
	ws   *workspace.Workspace
	log  commonlog.Logger
	rand *rand.Rand

	sheet    *css.Stylesheet
	extender *selector.Extender
	extends  map[*selector.Extension]*ast.NodeExtend

	global *scope
	scope  *scope
	frame  frame
	file   string

	content    *contentBlock
	inFunction bool
	ret        value.Value

	callDepth int
}

// Evaluate runs sheet and returns the resolved tree. Imports are loaded
// through ws.
func Evaluate(ws *workspace.Workspace, sheet *ast.Stylesheet, opts Options) (*css.Stylesheet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = commonlog.GetLogger("sassy.evaluator")
	}

	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &context{
		ws:       ws,
		log:      logger,
		rand:     rnd,
		sheet:    &css.Stylesheet{},
		extender: selector.NewExtender(),
		extends:  make(map[*selector.Extension]*ast.NodeExtend),
		global:   newScope(nil, false),
		file:     sheet.Position().File,
	}
	c.scope = c.global
	c.frame = frame{container: &c.sheet.Nodes}

	leave, err := ws.Enter(c.file)
	if err != nil {
		return nil, err
	}
	defer leave()

	if err := c.visitNodes(sheet.Nodes); err != nil {
		return nil, err
	}

	return c.finish()
}

func (c *context) Rand() *rand.Rand {
	return c.rand
}

// situate attaches the position of n to err unless it already has one.
func (c *context) situate(err error, n ast.Node) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(located); ok {
		return err
	}

	return &EvalError{
		Inner:    err,
		Location: n.Position(),
	}
}

// finish applies extensions to every style rule and drops placeholder
// selectors.
func (c *context) finish() (*css.Stylesheet, error) {
	nodes := c.extend(c.sheet.Nodes, "")

	if cross := c.extender.CrossMedia(); len(cross) > 0 {
		return nil, c.situate(selector.Errorf("you may not @extend selectors across media queries"), c.extends[cross[0]])
	}

	for _, ext := range c.extender.Unmatched() {
		c.log.Warningf("%s: the target selector %q was not found, use \"@extend %s !optional\" to avoid this warning", ext.Where, ext.Target, ext.Target)
	}

	return &css.Stylesheet{Nodes: nodes}, nil
}

// extend rewrites the rules in nodes, which sit in the media context media.
func (c *context) extend(nodes []css.Node, media string) []css.Node {
	ret := make([]css.Node, 0, len(nodes))

	for _, n := range nodes {
		switch n := n.(type) {
		case *css.Rule:
			sel := c.extender.Apply(n.Selector, media).WithoutPlaceholders()
			if len(sel) == 0 {
				continue
			}
			ret = append(ret, &css.Rule{Selector: sel, Nodes: n.Nodes})

		case *css.AtRule:
			if !n.HasBlock {
				ret = append(ret, n)
				continue
			}
			inner := ""
			if strings.EqualFold(n.Name, "media") {
				inner = n.Params
			}

			ret = append(ret, &css.AtRule{
				Name:     n.Name,
				Params:   n.Params,
				HasBlock: true,
				Nodes:    c.extend(n.Nodes, inner),
			})

		default:
			ret = append(ret, n)
		}
	}

	return ret
}
