package termtest

import (
	"bytes"
	"testing"
)

func TestSplitFrames(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[H\x1b[1mPage 1 of 3\x1b[0m   \r\nhello\x1b[2J\x1b[HPage 2 of 3\n\n\x1b]11;?\x07")
	frames := splitFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %#v", len(frames), frames)
	}
	if frames[0].Plain != "Page 1 of 3\nhello" {
		t.Fatalf("unexpected first frame %q", frames[0].Plain)
	}
	rec := &Recording{Frames: frames}
	final, ok := rec.FinalFrame()
	if !ok || final.Plain != "Page 2 of 3" {
		t.Fatalf("unexpected final frame %q", final.Plain)
	}
	if !rec.Contains("hello") || rec.Contains("Page 3") {
		t.Fatal("Contains should search every frame")
	}
}

func TestEmptyRecording(t *testing.T) {
	var rec *Recording
	if _, ok := rec.FinalFrame(); ok {
		t.Fatal("nil recording has no frames")
	}
	if frames := splitFrames([]byte("\x1b[2J\x1b[H   ")); len(frames) != 0 {
		t.Fatalf("blank output should produce no frames, got %d", len(frames))
	}
}

func TestResponderAnswersQueries(t *testing.T) {
	var out bytes.Buffer
	r := newResponder(&out)

	r.Feed([]byte("before\x1b[6"))
	if out.Len() != 0 {
		t.Fatal("partial query should not be answered yet")
	}
	r.Feed([]byte("n and \x1b]11;?\x07 after"))
	want := "\x1b[1;1R\x1b]11;rgb:0000/0000/0000\x07"
	if out.String() != want {
		t.Fatalf("unexpected replies %q", out.String())
	}

	out.Reset()
	r.Feed([]byte("plain output"))
	if out.Len() != 0 {
		t.Fatalf("no query should mean no reply, got %q", out.String())
	}
}
