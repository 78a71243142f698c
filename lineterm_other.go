//go:build !windows

package gojacomplate

// LineTerminator is appended by [Stream.Writeln] implementations in this
// package.
const LineTerminator = "\n"
