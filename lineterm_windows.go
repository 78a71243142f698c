package gojacomplate

// LineTerminator is appended by [Stream.Writeln] implementations in this
// package.
const LineTerminator = "\r\n"
