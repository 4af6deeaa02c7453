// Package workspace resolves imports and caches the parsed stylesheets of a
// single compilation.
package workspace

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/parser"
	"github.com/pipe01/sassy/internal/parser/ast"
)

var log = commonlog.GetLogger("sassy.workspace")

// ImportError is a failure to find, read or enter an imported file.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("can't import %q: %s", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func (e *ImportError) Kind() serrors.Kind {
	return serrors.KindImport
}

// Workspace is owned by one compilation and must not be shared.
type Workspace struct {
	resolver Resolver

	parsedFiles map[string]*ast.Stylesheet
	loading     map[string]struct{}
	requested   []string
}

func New(resolver Resolver) *Workspace {
	return &Workspace{
		resolver:    resolver,
		parsedFiles: make(map[string]*ast.Stylesheet),
		loading:     make(map[string]struct{}),
	}
}

// Enter marks canonical as being evaluated until leave is called. Entering a
// file that is already being evaluated is an import cycle.
func (w *Workspace) Enter(canonical string) (leave func(), err error) {
	if canonical == "" {
		return func() {}, nil
	}

	if _, ok := w.loading[canonical]; ok {
		return nil, &ImportError{Path: canonical, Err: fmt.Errorf("detected import cycle on %q", canonical)}
	}

	w.loading[canonical] = struct{}{}
	return func() { delete(w.loading, canonical) }, nil
}

// Load resolves an import of importPath written in the file from and returns
// its parsed stylesheet. Candidates are tried in the order given by
// Candidates and the first one the resolver finds wins.
func (w *Workspace) Load(importPath, from string) (*ast.Stylesheet, error) {
	if w.resolver == nil {
		return nil, &ImportError{Path: importPath, Err: fmt.Errorf("no import resolver configured")}
	}

	for _, cand := range Candidates(importPath) {
		canonical, contents, err := w.resolver.Resolve(cand, from)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, &ImportError{Path: importPath, Err: err}
		}

		log.Debugf("resolved import %q from %q to %q", importPath, from, canonical)

		return w.Parse(canonical, contents, SyntaxFor(canonical))
	}

	return nil, &ImportError{Path: importPath, Err: fmt.Errorf("file to import not found or unreadable")}
}

// Parse parses contents as the file canonical, reusing an earlier result for
// the same file.
func (w *Workspace) Parse(canonical string, contents []byte, syntax lexer.Syntax) (*ast.Stylesheet, error) {
	if f, ok := w.parsedFiles[canonical]; ok && canonical != "" {
		return f, nil
	}

	if canonical != "" {
		w.requested = append(w.requested, canonical)
	}

	tks, err := lexer.New(contents, canonical, syntax).Collect()
	if err != nil {
		return nil, err
	}

	file, err := parser.Parse(tks, canonical, syntax)
	if err != nil {
		return nil, err
	}

	if canonical != "" {
		w.parsedFiles[canonical] = file
	}
	return file, nil
}

// RequestedFiles returns the canonical path of every imported file, in the
// order they were first loaded.
func (w *Workspace) RequestedFiles() []string {
	return append([]string{}, w.requested...)
}

// SyntaxFor picks the surface syntax from a file's extension.
func SyntaxFor(name string) lexer.Syntax {
	if strings.EqualFold(path.Ext(filepath.ToSlash(name)), ".sass") {
		return lexer.SyntaxIndented
	}
	return lexer.SyntaxSCSS
}

// Candidates lists the paths tried for an import, in order. A path with an
// extension is tried as is and as a partial; otherwise both syntaxes are
// tried as a file, as a partial and as a directory index, and plain CSS last.
func Candidates(importPath string) []string {
	p := filepath.ToSlash(importPath)
	dir, base := path.Split(p)

	switch strings.ToLower(path.Ext(base)) {
	case ".scss", ".sass", ".css":
		return uniq(p, dir+"_"+base)
	}

	return uniq(
		dir+base+".scss",
		dir+"_"+base+".scss",
		dir+base+".sass",
		dir+"_"+base+".sass",
		p+"/index.scss",
		p+"/_index.scss",
		p+"/index.sass",
		p+"/_index.sass",
		dir+base+".css",
		dir+"_"+base+".css",
	)
}

func uniq(paths ...string) []string {
	ret := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ret = append(ret, p)
	}

	return ret
}
