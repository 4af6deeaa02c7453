package evaluator

import (
	"github.com/pipe01/sassy/internal/value"
)

// scope binds variables, mixins and functions. Scopes only ever point at the
// scope they were created in, or at a callable's defining scope.
type scope struct {
	parent *scope

	vars      map[string]value.Value
	mixins    map[string]*callable
	functions map[string]*callable

	// semiGlobal is set for control flow blocks that only have other control
	// flow blocks between them and the global scope. Assignments made in them
	// update existing global variables.
	semiGlobal bool
}

func newScope(parent *scope, semiGlobal bool) *scope {
	return &scope{
		parent:     parent,
		vars:       make(map[string]value.Value),
		semiGlobal: semiGlobal,
	}
}

func (s *scope) lookup(name string) (value.Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) lookupMixin(name string) *callable {
	for ; s != nil; s = s.parent {
		if m, ok := s.mixins[name]; ok {
			return m
		}
	}
	return nil
}

func (s *scope) lookupFunction(name string) *callable {
	for ; s != nil; s = s.parent {
		if f, ok := s.functions[name]; ok {
			return f
		}
	}
	return nil
}

func (s *scope) defineMixin(m *callable) {
	if s.mixins == nil {
		s.mixins = make(map[string]*callable)
	}
	s.mixins[m.name] = m
}

func (s *scope) defineFunction(f *callable) {
	if s.functions == nil {
		s.functions = make(map[string]*callable)
	}
	s.functions[f.name] = f
}

func (s *scope) has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// target returns the scope an assignment to name made in s writes to.
func (s *scope) target(name string, global *scope) *scope {
	for t := s; t != nil && t != global; t = t.parent {
		if t.has(name) {
			return t
		}
	}

	if (s == global || s.semiGlobal) && global.has(name) {
		return global
	}

	return s
}
