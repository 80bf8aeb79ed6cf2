package errs

import (
	"fmt"
	"io"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("unable to build timeline: %w", New(NoMeasures, "score has no measures"))
	if !Is(err, NoMeasures) {
		t.Log("wrapped error lost its kind", err)
		t.Fail()
	}
	if Is(err, NoTempoInfo) {
		t.Log("wrong kind matched", err)
		t.Fail()
	}
	if KindOf(err) != NoMeasures {
		t.Log("KindOf", KindOf(err))
		t.Fail()
	}
	if KindOf(io.EOF) != "" {
		t.Log("plain error has a kind")
		t.Fail()
	}
}

func TestWrap(t *testing.T) {
	if nil != Wrap(AudioBackend, nil, "nothing") {
		t.Fatal("wrapping nil should give nil")
	}
	err := Wrap(AudioBackend, io.ErrUnexpectedEOF, "unable to decode %s", "a.wav")
	if !Is(err, AudioBackend) {
		t.Fail()
	}
	if err.Error() != "AudioBackend: unable to decode a.wav: unexpected EOF" {
		t.Log(err.Error())
		t.Fail()
	}
}
