package gojacomplate

import (
	"bufio"
	"io"
	"strings"

	"github.com/dop251/goja"
)

// Stream receives rendered output, in the order it is produced. One Stream
// serves exactly one render call at a time.
type Stream interface {
	// Write appends text.
	Write(text string) error
	// Writeln appends text followed by [LineTerminator].
	Writeln(text string) error
	// Flush delivers any buffered output to its destination.
	Flush() error
}

// StringStream is an in-memory [Stream]. The zero value is ready to use.
type StringStream struct {
	b strings.Builder
}

var _ Stream = (*StringStream)(nil)

// Write implements [Stream].
func (s *StringStream) Write(text string) error {
	s.b.WriteString(text)
	return nil
}

// Writeln implements [Stream].
func (s *StringStream) Writeln(text string) error {
	s.b.WriteString(text)
	s.b.WriteString(LineTerminator)
	return nil
}

// Flush is a no-op.
func (s *StringStream) Flush() error { return nil }

// String returns everything written so far.
func (s *StringStream) String() string { return s.b.String() }

// Reset discards everything written so far.
func (s *StringStream) Reset() { s.b.Reset() }

// WriterStream is a [Stream] buffering output to an [io.Writer].
type WriterStream struct {
	w   io.Writer
	buf *bufio.Writer
}

var _ Stream = (*WriterStream)(nil)

// NewWriterStream returns a Stream writing to w. Flush forwards to w when it
// has a Flush() error or Flush() method, e.g. [net/http.Flusher].
func NewWriterStream(w io.Writer) *WriterStream {
	return &WriterStream{w: w, buf: bufio.NewWriter(w)}
}

// Write implements [Stream].
func (s *WriterStream) Write(text string) error {
	_, err := s.buf.WriteString(text)
	return err
}

// Writeln implements [Stream].
func (s *WriterStream) Writeln(text string) error {
	if _, err := s.buf.WriteString(text); err != nil {
		return err
	}
	_, err := s.buf.WriteString(LineTerminator)
	return err
}

// Flush implements [Stream].
func (s *WriterStream) Flush() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}
	switch f := s.w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
	return nil
}

// streamAdapter is the script side of a [Stream]. The first error thrown
// into script is kept, so it is reported even if the script catches it.
type streamAdapter struct {
	stream Stream
	err    error
}

func (a *streamAdapter) object(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	_ = obj.Set("write", a.method(rt, a.stream.Write))
	_ = obj.Set("writeln", a.method(rt, a.stream.Writeln))
	_ = obj.Set("flush", func(goja.FunctionCall) goja.Value {
		a.check(rt, a.stream.Flush())
		return goja.Undefined()
	})
	return obj
}

func (a *streamAdapter) method(rt *goja.Runtime, fn func(string) error) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var text string
		if arg := call.Argument(0); !goja.IsUndefined(arg) {
			text = arg.String()
		}
		a.check(rt, fn(text))
		return goja.Undefined()
	}
}

func (a *streamAdapter) check(rt *goja.Runtime, err error) {
	if err == nil {
		return
	}
	if a.err == nil {
		a.err = err
	}
	panic(rt.NewGoError(err))
}
