package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a recoverable failure. Every operation in the pipeline
// reports one of these instead of panicking.
type Kind string

const (
	NoTempoInfo              Kind = "NoTempoInfo"
	NoMeasures               Kind = "NoMeasures"
	InvalidBeatType          Kind = "InvalidBeatType"
	NoStrongBeats            Kind = "NoStrongBeats"
	EmptyFile                Kind = "EmptyFile"
	MissingColumns           Kind = "MissingColumns"
	InvalidDataTypes         Kind = "InvalidDataTypes"
	SectionNotFound          Kind = "SectionNotFound"
	OverlapError             Kind = "OverlapError"
	AlignmentError           Kind = "AlignmentError"
	UnsupportedTimeSignature Kind = "UnsupportedTimeSignature"
	EmptyEdit                Kind = "EmptyEdit"
	InvalidCommand           Kind = "InvalidCommand"
	ScoreSource              Kind = "ScoreSource"
	AudioBackend             Kind = "AudioBackend"
	Config                   Kind = "Config"
)

// Error lets a Kind stand in as a target for errors.Is.
func (k Kind) Error() string {
	return string(k)
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to a collaborator error. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if nil == err {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if nil != e.Err {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
