package selector

// maxExtendRounds bounds how many times extensions are applied to their own
// results.
const maxExtendRounds = 16

// Extension records one "@extend target" found in a rule with selector Extender.
type Extension struct {
	Extender List
	Target   Compound
	Optional bool

	// Where describes the @extend rule's location for diagnostics.
	Where string

	// Media is the query list of the @media block the @extend appeared in,
	// empty at the top level. Such an extension only applies to rules in the
	// same block.
	Media string

	matched    bool
	crossMedia bool
}

func (e *Extension) Matched() bool {
	return e.matched
}

// appliesIn reports whether e may extend rules found in the media context
// media.
func (e *Extension) appliesIn(media string) bool {
	return e.Media == "" || e.Media == media
}

// Extender collects extensions while a stylesheet is evaluated and applies
// them to every rule once evaluation is done.
type Extender struct {
	exts []*Extension
}

func NewExtender() *Extender {
	return &Extender{}
}

func (e *Extender) Add(ext *Extension) {
	e.exts = append(e.exts, ext)
}

func (e *Extender) Len() int {
	return len(e.exts)
}

// Unmatched returns the non-optional extensions whose target never matched.
func (e *Extender) Unmatched() []*Extension {
	var ret []*Extension
	for _, ext := range e.exts {
		if !ext.matched && !ext.Optional {
			ret = append(ret, ext)
		}
	}
	return ret
}

// CrossMedia returns the extensions from inside an @media block whose target
// matched a rule outside of it.
func (e *Extender) CrossMedia() []*Extension {
	var ret []*Extension
	for _, ext := range e.exts {
		if ext.crossMedia {
			ret = append(ret, ext)
		}
	}
	return ret
}

// Apply returns l, a rule found in the media context media, with every
// extension applied transitively. Each new complex selector follows the one it
// was derived from, and duplicates are dropped keeping the first occurrence.
func (e *Extender) Apply(l List, media string) List {
	if len(e.exts) == 0 {
		return l
	}

	ret := make(List, 0, len(l))
	seen := make(map[string]struct{}, len(l))

	add := func(c Complex) bool {
		key := c.String()
		if _, ok := seen[key]; ok {
			return false
		}

		seen[key] = struct{}{}
		ret = append(ret, c)
		return true
	}

	for _, c := range l {
		if !add(c) {
			continue
		}

		queue := []Complex{c}
		for round := 0; len(queue) > 0 && round < maxExtendRounds; round++ {
			var next []Complex

			for _, q := range queue {
				for _, ext := range e.exts {
					if !ext.appliesIn(media) {
						if len(ext.apply(q)) > 0 {
							ext.crossMedia = true
						}
						continue
					}

					for _, x := range ext.apply(q) {
						if add(x) {
							next = append(next, x)
						}
					}
				}
			}

			queue = next
		}
	}

	return ret
}

func (e *Extension) apply(c Complex) []Complex {
	var ret []Complex

	for i, comp := range c {
		rest, ok := without(comp.Compound, e.Target)
		if !ok {
			continue
		}

		for _, x := range e.Extender {
			last := x[len(x)-1]

			merged, ok := unify(last.Compound, rest)
			if !ok {
				continue
			}
			e.matched = true

			nc := make(Complex, 0, len(c)+len(x)-1)
			nc = append(nc, c[:i].clone()...)

			prefix := x[:len(x)-1].clone()
			mergedComb := comp.Comb
			if len(prefix) > 0 {
				if comp.Comb != CombDescendant {
					prefix[0].Comb = comp.Comb
				}
				mergedComb = last.Comb
			}

			nc = append(nc, prefix...)
			nc = append(nc, Component{Comb: mergedComb, Compound: merged})
			nc = append(nc, c[i+1:].clone()...)

			ret = append(ret, nc)
		}
	}

	return ret
}

// without removes the simple selectors of target from c, failing if any of
// them is missing.
func without(c, target Compound) (Compound, bool) {
	for _, t := range target {
		if !c.contains(t) {
			return nil, false
		}
	}

	ret := make(Compound, 0, len(c))
	for _, s := range c {
		if !target.contains(s) {
			ret = append(ret, s)
		}
	}

	return ret, true
}

// unify merges the simple selectors of ext into c. Type selectors go first and
// pseudo selectors stay last. It fails when both name different elements.
func unify(ext, c Compound) (Compound, bool) {
	ret := append(Compound{}, c...)

	for _, s := range ext {
		if s.Kind == SimpleType {
			i := ret.typeIndex()

			switch {
			case i < 0:
				ret = append(Compound{s}, ret...)
			case ret[i].Text == "*":
				ret[i] = s
			case s.Text != "*" && ret[i].Text != s.Text:
				return nil, false
			}
			continue
		}

		if ret.contains(s) {
			continue
		}

		ret = insertBeforePseudo(ret, s)
	}

	return ret, true
}

func insertBeforePseudo(c Compound, s Simple) Compound {
	if s.Kind != SimplePseudo {
		for i, o := range c {
			if o.Kind == SimplePseudo {
				ret := make(Compound, 0, len(c)+1)
				ret = append(ret, c[:i]...)
				ret = append(ret, s)
				return append(ret, c[i:]...)
			}
		}
	}

	return append(c, s)
}
