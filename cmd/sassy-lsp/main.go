package main

import (
	goerrors "errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	serrors "github.com/pipe01/sassy/errors"
	"github.com/pipe01/sassy/internal/lexer"
	"github.com/pipe01/sassy/internal/workspace"
	"github.com/pipe01/sassy/sass"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "sassy"

var version string = "0.1.0"
var handler protocol.Handler

var (
	documentsMu sync.Mutex
	documents   = map[string]string{}
)

var tokenTypes = []string{"keyword", "variable", "string", "number", "comment"}

func main() {
	commonlog.Configure(1, nil)

	protocol.SetTraceValue(protocol.TraceValueMessage)

	handler = protocol.Handler{
		Initialize:  initialize,
		Initialized: initialized,
		Shutdown:    shutdown,
		SetTrace:    setTrace,
		TextDocumentDidOpen: func(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
			setDocument(params.TextDocument.URI, params.TextDocument.Text)

			return handleDocument(context, params.TextDocument.URI)
		},
		TextDocumentDidChange: func(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
			content, ok := getDocument(params.TextDocument.URI)
			if !ok {
				return nil
			}

			for _, change := range params.ContentChanges {
				switch change := change.(type) {
				case protocol.TextDocumentContentChangeEventWhole:
					content = change.Text

				case protocol.TextDocumentContentChangeEvent:
					startIndex, endIndex := change.Range.IndexesIn(content)
					content = content[:startIndex] + change.Text + content[endIndex:]
				}
			}
			setDocument(params.TextDocument.URI, content)

			return handleDocument(context, params.TextDocument.URI)
		},
		TextDocumentDidClose: func(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
			documentsMu.Lock()
			delete(documents, params.TextDocument.URI)
			documentsMu.Unlock()

			publish(context, params.TextDocument.URI, []protocol.Diagnostic{})
			return nil
		},
		TextDocumentSemanticTokensFull: semanticTokensFull,
	}

	server := server.NewServer(&handler, lsName, false)

	server.RunStdio()
}

func setDocument(uri, content string) {
	documentsMu.Lock()
	defer documentsMu.Unlock()

	documents[uri] = content
}

func getDocument(uri string) (string, bool) {
	documentsMu.Lock()
	defer documentsMu.Unlock()

	content, ok := documents[uri]
	return content, ok
}

func documentPath(docURI string) (string, error) {
	u, err := url.Parse(docURI)
	if err != nil {
		return "", fmt.Errorf("parse document uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("invalid document uri scheme %q", u.Scheme)
	}

	return u.Path, nil
}

// handleDocument compiles the document and publishes its error, if any, as
// the only diagnostic.
func handleDocument(context *glsp.Context, docURI string) error {
	filePath, err := documentPath(docURI)
	if err != nil {
		return err
	}

	contents, ok := getDocument(docURI)
	if !ok {
		return nil
	}

	opts := sass.Options{
		FileName: filePath,
		Resolver: &sass.DirResolver{},
	}
	if workspace.SyntaxFor(filePath) == lexer.SyntaxIndented {
		opts.Syntax = sass.SyntaxIndented
	}

	diag := []protocol.Diagnostic{}

	_, err = sass.Compile([]byte(contents), opts)
	if err != nil {
		diag = append(diag, diagnostic(err, filePath))
	}

	publish(context, docURI, diag)
	return nil
}

func diagnostic(err error, filePath string) protocol.Diagnostic {
	d := protocol.Diagnostic{
		Severity: ptr(protocol.DiagnosticSeverityError),
		Source:   ptr(lsName),
		Message:  err.Error(),
	}

	var cerr *serrors.CompileError
	if !goerrors.As(err, &cerr) {
		return d
	}

	d.Code = &protocol.IntegerOrString{Value: cerr.Kind.String()}

	// Failures inside imported files are pinned to the top of the document.
	if cerr.File == filePath && cerr.Line > 0 {
		d.Message = cerr.Message
		d.Range = protocol.Range{
			Start: pos(cerr.Line-1, cerr.Column-1),
			End:   pos(cerr.Line-1, cerr.Column-1),
		}
	}

	return d
}

func publish(context *glsp.Context, docURI string, diag []protocol.Diagnostic) {
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: diag,
	})
}

func initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := handler.CreateServerCapabilities()
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     tokenTypes,
			TokenModifiers: []string{},
		},
		Range: false,
		Full:  true,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// tokenType maps a lexer token to an index into tokenTypes.
func tokenType(tk *lexer.Token) (protocol.UInteger, bool) {
	switch tk.Type {
	case lexer.TokenAtKeyword, lexer.TokenFlag:
		return 0, true
	case lexer.TokenVariable:
		return 1, true
	case lexer.TokenStringText, lexer.TokenURL:
		return 2, true
	case lexer.TokenNumber:
		return 3, true
	case lexer.TokenComment:
		return 4, true
	}

	return 0, false
}

func semanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	content, ok := getDocument(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document %q not found", params.TextDocument.URI)
	}

	filePath, err := documentPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tks, err := lexer.New([]byte(content), filepath.Base(filePath), workspace.SyntaxFor(filePath)).Collect()
	data := make([]protocol.UInteger, 0)
	if err != nil {
		// The diagnostic already reports the lex error.
		return &protocol.SemanticTokens{Data: data}, nil
	}

	var prevPos lexer.Location
	for i := range tks {
		tk := &tks[i]

		typ, ok := tokenType(tk)
		if !ok || tk.Contents == "" || strings.Contains(tk.Contents, "\n") {
			continue
		}

		var startDelta protocol.UInteger
		if tk.Start.Line == prevPos.Line {
			startDelta = uint32(tk.Start.Column - prevPos.Column)
		} else {
			startDelta = uint32(tk.Start.Column)
		}

		data = append(data,
			protocol.UInteger(tk.Start.Line-prevPos.Line),
			startDelta,
			protocol.UInteger(len(tk.Contents)),
			typ,
			0,
		)

		prevPos = tk.Start
	}

	return &protocol.SemanticTokens{
		Data: data,
	}, nil
}

func ptr[T any](v T) *T {
	return &v
}

func pos(line, col int) protocol.Position {
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(col),
	}
}
