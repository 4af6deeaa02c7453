// Package sass compiles SCSS and indented-syntax stylesheets to CSS.
//
// Each call to Compile or CompileFile owns all of its state, so calls may run
// concurrently.
package sass

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/evaluator"
	"github.com/pipe01/sassy/internal/generator"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/workspace"
)

type Syntax int

const (
	SyntaxSCSS Syntax = iota
	SyntaxIndented
)

type Style = generator.Style

const (
	StyleExpanded   = generator.StyleExpanded
	StyleCompressed = generator.StyleCompressed
)

// ParseStyle parses "expanded" or "compressed".
func ParseStyle(name string) (Style, error) {
	return generator.ParseStyle(name)
}

type (
	// Resolver finds and reads imported files.
	Resolver = workspace.Resolver
	// DirResolver reads imports from disk.
	DirResolver = workspace.DirResolver
	// MapResolver serves imports from memory.
	MapResolver = workspace.MapResolver
)

type Options struct {
	Syntax Syntax
	Style  Style

	// FileName names the source in error messages and is the base for
	// relative imports.
	FileName string

	// Resolver loads imports. Without one every import fails.
	Resolver Resolver

	// Rand backs random() and unique-id(). Pass a seeded source for
	// reproducible output.
	Rand *rand.Rand

	Logger commonlog.Logger
}

type Result struct {
	CSS string

	// Imports lists the canonical names of every file that was imported.
	Imports []string
}

// Compile compiles src. Failures are always an *errors.CompileError.
func Compile(src []byte, opts Options) (string, error) {
	res, err := compile(src, opts)
	if err != nil {
		return "", err
	}
	return res.CSS, nil
}

// CompileFile reads and compiles the file at path, picking the syntax from its
// extension. Imports are resolved next to the file when opts has no resolver.
func CompileFile(path string, opts Options) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &serrors.CompileError{
			Kind:    serrors.KindImport,
			Message: err.Error(),
			File:    path,
			Err:     err,
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	opts.FileName = path
	if workspace.SyntaxFor(path) == lexer.SyntaxIndented {
		opts.Syntax = SyntaxIndented
	}
	if opts.Resolver == nil {
		opts.Resolver = &DirResolver{}
	}

	return compile(src, opts)
}

func compile(src []byte, opts Options) (*Result, error) {
	syntax := lexer.SyntaxSCSS
	if opts.Syntax == SyntaxIndented {
		syntax = lexer.SyntaxIndented
	}

	ws := workspace.New(opts.Resolver)

	sheet, err := ws.Parse(opts.FileName, src, syntax)
	if err != nil {
		return nil, toCompileError(err)
	}

	tree, err := evaluator.Evaluate(ws, sheet, evaluator.Options{
		Rand:   opts.Rand,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, toCompileError(err)
	}

	var buf bytes.Buffer
	if err := generator.Generate(&buf, tree, opts.Style); err != nil {
		return nil, toCompileError(err)
	}

	imports := ws.RequestedFiles()
	if len(imports) > 0 && imports[0] == opts.FileName {
		imports = imports[1:]
	}

	return &Result{
		CSS:     buf.String(),
		Imports: imports,
	}, nil
}

type situatedErr interface {
	Unwrap() error
	At() lexer.Location
}

func toCompileError(err error) *serrors.CompileError {
	ret := &serrors.CompileError{
		Kind:    serrors.KindOf(err, serrors.KindSerialization),
		Message: err.Error(),
		Err:     err,
	}

	if serr, ok := err.(situatedErr); ok {
		loc := serr.At()

		ret.Message = fmt.Sprint(serr.Unwrap())
		ret.File = loc.File
		ret.Line = loc.Line + 1
		ret.Column = loc.Column + 1
		ret.Offset = loc.Offset
	}

	return ret
}
