package generator

import (
	"io"
	"strings"
)

// outputWriter writes CSS text, remembering the first write error so callers
// only check once at the end.
type outputWriter struct {
	w           io.Writer
	indentation int
	compressed  bool

	err error
}

func (w *outputWriter) indent(delta int) {
	w.indentation += delta
}

func (w *outputWriter) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *outputWriter) writeIndentation() {
	if !w.compressed {
		w.write(strings.Repeat("  ", w.indentation))
	}
}

func (w *outputWriter) newLine() {
	if !w.compressed {
		w.write("\n")
	}
}

func (w *outputWriter) WriteBlockStart(header string) {
	w.writeIndentation()
	w.write(header)

	if w.compressed {
		w.write("{")
	} else {
		w.write(" {\n")
	}

	w.indent(1)
}

func (w *outputWriter) WriteBlockEnd() {
	w.indent(-1)
	w.writeIndentation()
	w.write("}")
	w.newLine()
}

// WriteDeclaration writes "name: value;". In compressed output the semicolon
// is written by the caller between declarations only.
func (w *outputWriter) WriteDeclaration(name, value string, important bool) {
	w.writeIndentation()
	w.write(name)

	if w.compressed {
		w.write(":")
	} else {
		w.write(": ")
	}
	w.write(value)

	if important {
		if w.compressed {
			w.write("!important")
		} else {
			w.write(" !important")
		}
	}

	if !w.compressed {
		w.write(";\n")
	}
}

func (w *outputWriter) WriteStatement(text string) {
	w.writeIndentation()
	w.write(text)

	if !w.compressed {
		w.write(";\n")
	}
}

// WriteSeparator ends the previous statement of a compressed block.
func (w *outputWriter) WriteSeparator() {
	if w.compressed {
		w.write(";")
	}
}

func (w *outputWriter) WriteComment(text string) {
	w.writeIndentation()
	w.write(text)
	w.newLine()
}
