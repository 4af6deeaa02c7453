package evaluator

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/css"
	"github.com/pipe01/sassy/internal/parser/ast"
	"github.com/pipe01/sassy/internal/selector"
	"github.com/pipe01/sassy/internal/value"
)

func (c *context) visitNodes(nodes []ast.Node) error {
	for _, n := range nodes {
		if c.ret != nil {
			return nil
		}

		if err := c.visitNode(n); err != nil {
			return err
		}
	}

	return nil
}

func (c *context) visitNode(n ast.Node) error {
	if c.inFunction {
		switch n.(type) {
		case *ast.NodeVariable, *ast.NodeIf, *ast.NodeEach, *ast.NodeFor, *ast.NodeWhile,
			*ast.NodeReturn, *ast.NodeMessage, *ast.NodeComment:
		default:
			return c.situate(failf(serrors.KindParse, "functions can only contain variable declarations and control directives"), n)
		}
	}

	switch n := n.(type) {
	case *ast.NodeRule:
		return c.visitRule(n)

	case *ast.NodeDeclaration:
		return c.visitDeclaration(n)

	case *ast.NodeVariable:
		return c.visitVariable(n)

	case *ast.NodeAtRule:
		return c.visitAtRule(n)

	case *ast.NodeIf:
		return c.visitIf(n)

	case *ast.NodeEach:
		return c.visitEach(n)

	case *ast.NodeFor:
		return c.visitFor(n)

	case *ast.NodeWhile:
		return c.visitWhile(n)

	case *ast.NodeMixinDef:
		c.scope.defineMixin(&callable{
			name:   n.Name,
			params: n.Params,
			nodes:  n.Nodes,
			scope:  c.scope,
			node:   n,
		})

	case *ast.NodeFunctionDef:
		c.scope.defineFunction(&callable{
			name:   n.Name,
			params: n.Params,
			nodes:  n.Nodes,
			scope:  c.scope,
			node:   n,
		})

	case *ast.NodeReturn:
		return c.visitReturn(n)

	case *ast.NodeInclude:
		return c.visitInclude(n)

	case *ast.NodeContent:
		return c.visitContent(n)

	case *ast.NodeImport:
		return c.visitImport(n)

	case *ast.NodeExtend:
		return c.visitExtend(n)

	case *ast.NodeMessage:
		return c.visitMessage(n)

	case *ast.NodeAtRoot:
		return c.visitAtRoot(n)

	case *ast.NodeComment:
		if !c.inFunction {
			c.emit(&css.Comment{Text: n.Text})
		}

	default:
		return fmt.Errorf("unknown node type %s", reflect.ValueOf(n).String())
	}

	return nil
}

// emit adds a node that may live among declarations, falling back to the
// current container.
func (c *context) emit(n css.Node) {
	if c.frame.decls != nil {
		*c.frame.decls = append(*c.frame.decls, n)
		return
	}

	*c.frame.container = append(*c.frame.container, n)
}

// withScope runs fn in a new child scope. Control flow blocks pass
// controlFlow so that they can update global variables.
func (c *context) withScope(controlFlow bool, fn func() error) error {
	prev := c.scope

	semi := controlFlow && (prev == c.global || prev.semiGlobal)
	c.scope = newScope(prev, semi)
	defer func() { c.scope = prev }()

	return fn()
}

// withFrame runs fn with f as the output frame.
func (c *context) withFrame(f frame, fn func() error) error {
	prev := c.frame
	c.frame = f
	defer func() { c.frame = prev }()

	return fn()
}

func (c *context) visitRule(n *ast.NodeRule) error {
	text, err := c.interpolate(&n.Selector)
	if err != nil {
		return err
	}

	if c.frame.keyframes {
		return c.visitKeyframe(text, n.Nodes)
	}

	list, err := selector.Parse(text)
	if err != nil {
		return c.situate(err, n)
	}

	resolved, err := list.Resolve(c.frame.selector)
	if err != nil {
		return c.situate(err, n)
	}

	return c.styleRule(resolved, n.Nodes)
}

func (c *context) styleRule(sel selector.List, nodes []ast.Node) error {
	rule := &css.Rule{Selector: sel}
	*c.frame.container = append(*c.frame.container, rule)

	f := c.frame
	f.selector = sel
	f.decls = &rule.Nodes
	f.propPrefix = ""

	return c.withFrame(f, func() error {
		return c.withScope(false, func() error {
			return c.visitNodes(nodes)
		})
	})
}

func (c *context) visitKeyframe(text string, nodes []ast.Node) error {
	block := &css.Keyframe{Selector: strings.Join(strings.Fields(text), " ")}
	*c.frame.container = append(*c.frame.container, block)

	f := c.frame
	f.decls = &block.Nodes
	f.keyframes = false
	f.propPrefix = ""

	return c.withFrame(f, func() error {
		return c.withScope(false, func() error {
			return c.visitNodes(nodes)
		})
	})
}

func (c *context) visitDeclaration(n *ast.NodeDeclaration) error {
	if c.frame.decls == nil {
		return c.situate(failf(serrors.KindParse, "declarations may only be used within style rules"), n)
	}

	name, err := c.interpolate(&n.Name)
	if err != nil {
		return err
	}
	if c.frame.propPrefix != "" {
		name = c.frame.propPrefix + "-" + name
	}

	if n.Value != nil {
		v, err := c.eval(n.Value)
		if err != nil {
			return err
		}

		text, err := value.ToCSS(v, false)
		if err != nil {
			return c.situate(err, n.Value)
		}

		if text != "" || n.Custom {
			*c.frame.decls = append(*c.frame.decls, &css.Declaration{
				Name:      name,
				Value:     v,
				Important: n.Important,
				Custom:    n.Custom,
			})
		}
	}

	if len(n.Nodes) == 0 {
		return nil
	}

	f := c.frame
	f.propPrefix = name

	return c.withFrame(f, func() error {
		return c.visitNodes(n.Nodes)
	})
}

func (c *context) visitVariable(n *ast.NodeVariable) error {
	var target *scope
	if n.Global {
		target = c.global
	} else {
		target = c.scope.target(n.Name, c.global)
	}

	if n.Default {
		if v, ok := target.vars[n.Name]; ok && !value.IsNull(v) {
			return nil
		}
	}

	v, err := c.eval(n.Value)
	if err != nil {
		return err
	}

	target.vars[n.Name] = withoutSlash(v)
	return nil
}

func withoutSlash(v value.Value) value.Value {
	if n, ok := v.(*value.Number); ok && n.Slash != nil {
		return n.WithoutSlash()
	}
	return v
}

func (c *context) visitAtRule(n *ast.NodeAtRule) error {
	params, err := c.interpolate(&n.Params)
	if err != nil {
		return err
	}

	at := &css.AtRule{
		Name:     n.Name,
		Params:   params,
		HasBlock: n.HasBlock,
	}

	if !n.HasBlock {
		c.emit(at)
		return nil
	}

	name := strings.ToLower(n.Name)
	f := c.frame
	f.propPrefix = ""

	switch {
	case name == "media":
		target := c.frame.container
		if c.frame.media != "" {
			at.Params = mergeMedia(c.frame.media, params)
			target = c.frame.mediaContainer
		}
		*target = append(*target, at)

		f.media = at.Params
		f.mediaContainer = target

	case strings.HasSuffix(name, "keyframes"):
		*c.frame.container = append(*c.frame.container, at)

		f.container = &at.Nodes
		f.decls = nil
		f.selector = nil
		f.keyframes = true

		return c.withFrame(f, func() error {
			return c.withScope(false, func() error {
				return c.visitNodes(n.Nodes)
			})
		})

	default:
		*c.frame.container = append(*c.frame.container, at)

		f.media = ""
		f.mediaContainer = nil
	}

	f.container = &at.Nodes
	f.decls = &at.Nodes

	if c.frame.selector != nil {
		// Declarations directly inside the at-rule keep the enclosing selector.
		rule := &css.Rule{Selector: c.frame.selector}
		at.Nodes = append(at.Nodes, rule)
		f.decls = &rule.Nodes
	} else if name == "media" {
		f.decls = nil
	}

	return c.withFrame(f, func() error {
		return c.withScope(false, func() error {
			return c.visitNodes(n.Nodes)
		})
	})
}

// mergeMedia combines an outer and an inner media query list so that both
// must match.
func mergeMedia(outer, inner string) string {
	var ret []string

	for _, o := range splitTopLevel(outer) {
		for _, i := range splitTopLevel(inner) {
			ret = append(ret, o+" and "+i)
		}
	}

	return strings.Join(ret, ", ")
}

func splitTopLevel(s string) []string {
	var ret []string

	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				ret = append(ret, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	return append(ret, strings.TrimSpace(s[start:]))
}

func (c *context) visitAtRoot(n *ast.NodeAtRoot) error {
	f := c.frame
	f.selector = nil
	f.decls = nil
	f.propPrefix = ""

	if n.Selector == nil {
		return c.withFrame(f, func() error {
			return c.withScope(false, func() error {
				return c.visitNodes(n.Nodes)
			})
		})
	}

	text, err := c.interpolate(n.Selector)
	if err != nil {
		return err
	}

	list, err := selector.Parse(text)
	if err != nil {
		return c.situate(err, n)
	}

	var parent selector.List
	if list.HasParent() {
		parent = c.frame.selector
	}

	resolved, err := list.Resolve(parent)
	if err != nil {
		return c.situate(err, n)
	}

	return c.withFrame(f, func() error {
		return c.styleRule(resolved, n.Nodes)
	})
}

func (c *context) visitExtend(n *ast.NodeExtend) error {
	if c.frame.selector == nil {
		return c.situate(selector.Errorf("@extend may only be used within style rules"), n)
	}

	text, err := c.interpolate(&n.Selector)
	if err != nil {
		return err
	}

	targets, err := selector.ParseTargets(text)
	if err != nil {
		return c.situate(err, n)
	}

	loc := n.Position()
	for _, t := range targets {
		ext := &selector.Extension{
			Extender: c.frame.selector,
			Target:   t,
			Optional: n.Optional,
			Where:    loc.String(),
			Media:    c.frame.media,
		}
		c.extender.Add(ext)
		c.extends[ext] = n
	}

	return nil
}

func (c *context) visitImport(n *ast.NodeImport) error {
	for i := range n.Imports {
		imp := &n.Imports[i]

		if imp.Plain {
			params, err := c.interpolate(&imp.Raw)
			if err != nil {
				return err
			}

			*c.frame.container = append(*c.frame.container, &css.AtRule{Name: "import", Params: params})
			continue
		}

		if err := c.importFile(imp); err != nil {
			return err
		}
	}

	return nil
}

// importFile evaluates an imported stylesheet in place, as if its statements
// were written where the import is.
func (c *context) importFile(imp *ast.Import) error {
	sheet, err := c.ws.Load(imp.Path, c.file)
	if err != nil {
		return c.situate(err, imp)
	}

	canonical := sheet.Position().File

	leave, err := c.ws.Enter(canonical)
	if err != nil {
		return c.situate(err, imp)
	}
	defer leave()

	prev := c.file
	c.file = canonical
	defer func() { c.file = prev }()

	return c.visitNodes(sheet.Nodes)
}

func (c *context) visitMessage(n *ast.NodeMessage) error {
	v, err := c.eval(n.Value)
	if err != nil {
		return err
	}

	text := value.Inspect(v)
	if s, ok := v.(*value.String); ok {
		text = s.Text
	}

	loc := n.Position()

	switch n.Kind {
	case ast.MessageWarn:
		c.log.Warningf("%s: %s", &loc, text)
	case ast.MessageDebug:
		c.log.Debugf("%s: %s", &loc, text)
	case ast.MessageError:
		return c.situate(failf(serrors.KindUser, "%s", text), n)
	}

	return nil
}

func (c *context) visitIf(n *ast.NodeIf) error {
	for _, clause := range n.Clauses {
		cond, err := c.eval(clause.Cond)
		if err != nil {
			return err
		}

		if value.Truthy(cond) {
			return c.withScope(true, func() error {
				return c.visitNodes(clause.Nodes)
			})
		}
	}

	if n.HasElse {
		return c.withScope(true, func() error {
			return c.visitNodes(n.Else)
		})
	}

	return nil
}

func (c *context) visitEach(n *ast.NodeEach) error {
	list, err := c.eval(n.List)
	if err != nil {
		return err
	}

	for _, item := range value.Items(list) {
		err := c.withScope(true, func() error {
			if len(n.Vars) == 1 {
				c.scope.vars[n.Vars[0]] = item
			} else {
				parts := value.Items(item)
				for i, name := range n.Vars {
					if i < len(parts) {
						c.scope.vars[name] = parts[i]
					} else {
						c.scope.vars[name] = value.Null{}
					}
				}
			}

			return c.visitNodes(n.Nodes)
		})
		if err != nil || c.ret != nil {
			return err
		}
	}

	return nil
}

func (c *context) visitFor(n *ast.NodeFor) error {
	from, err := c.forBound(n.From)
	if err != nil {
		return err
	}

	to, err := c.forBound(n.To)
	if err != nil {
		return err
	}

	start, err := from.Int()
	if err != nil {
		return c.situate(value.TypeErrorf("%s is not an int", value.Inspect(from)), n.From)
	}

	if !to.Unitless() && !from.Unitless() {
		if to, err = to.ConvertTo(from.Units); err != nil {
			return c.situate(err, n.To)
		}
	}

	end, err := to.Int()
	if err != nil {
		return c.situate(value.TypeErrorf("%s is not an int", value.Inspect(to)), n.To)
	}

	step := int64(1)
	if start > end {
		step = -1
	}
	if !n.Inclusive {
		end -= step
	}

	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		err := c.withScope(true, func() error {
			c.scope.vars[n.Var] = value.NewNumber(new(big.Rat).SetInt64(i), from.Units)
			return c.visitNodes(n.Nodes)
		})
		if err != nil || c.ret != nil {
			return err
		}
	}

	return nil
}

func (c *context) forBound(e ast.Expr) (*value.Number, error) {
	v, err := c.eval(e)
	if err != nil {
		return nil, err
	}

	num, ok := v.(*value.Number)
	if !ok {
		return nil, c.situate(value.TypeErrorf("%s is not a number", value.Inspect(v)), e)
	}

	return num, nil
}

func (c *context) visitWhile(n *ast.NodeWhile) error {
	for {
		cond, err := c.eval(n.Cond)
		if err != nil {
			return err
		}

		if !value.Truthy(cond) {
			return nil
		}

		err = c.withScope(true, func() error {
			return c.visitNodes(n.Nodes)
		})
		if err != nil || c.ret != nil {
			return err
		}
	}
}

func (c *context) visitReturn(n *ast.NodeReturn) error {
	if !c.inFunction {
		return c.situate(failf(serrors.KindParse, "@return may only be used within a function"), n)
	}

	v, err := c.eval(n.Value)
	if err != nil {
		return err
	}

	c.ret = withoutSlash(v)
	return nil
}
