package termtest

import (
	"bytes"
	"io"
)

// reply pairs a terminal query with the answer a real terminal would give.
type reply struct {
	query  []byte
	answer []byte
}

var terminalReplies = []reply{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

// responder watches program output for terminal queries and answers them.
type responder struct {
	w    io.Writer
	tail []byte
}

func newResponder(w io.Writer) *responder {
	return &responder{w: w, tail: make([]byte, 0, 128)}
}

// Feed scans a chunk of output. Queries split across chunks are found
// because a short tail of earlier output is kept.
func (r *responder) Feed(chunk []byte) {
	r.tail = append(r.tail, chunk...)
	for r.answerOne() {
	}
	if len(r.tail) > 256 {
		r.tail = append(r.tail[:0], r.tail[len(r.tail)-64:]...)
	}
}

func (r *responder) answerOne() bool {
	first, at := -1, len(r.tail)
	for i, rep := range terminalReplies {
		if idx := bytes.Index(r.tail, rep.query); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	rep := terminalReplies[first]
	r.tail = r.tail[at+len(rep.query):]
	_, _ = r.w.Write(rep.answer)
	return true
}
