package dubbing

import (
	"errors"
	"fmt"

	"redub/pkg/ffmpeg"
	"redub/pkg/timeline"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindSynthesis
	KindTranscode
	KindPersistence
	KindResource
	KindCanceled
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSynthesis:
		return "synthesis"
	case KindTranscode:
		return "transcode"
	case KindPersistence:
		return "persistence"
	case KindResource:
		return "resource"
	case KindCanceled:
		return "canceled"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a failed run. State is where the run was when it failed.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed in %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by the service. Errors that don't come
// from a run are classified by what they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.Kind
	}

	var verr *timeline.ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}

	var terr *ffmpeg.TranscodeError
	if errors.As(err, &terr) {
		return KindTranscode
	}

	return KindUnknown
}

// StateOf returns the state a run failed in, StateError when unknown.
func StateOf(err error) State {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.State
	}

	return StateError
}

func newError(kind Kind, state State, err error) *Error {
	return &Error{Kind: kind, State: state, Err: err}
}

func validationErr(format string, args ...any) error {
	return &timeline.ValidationError{Cue: timeline.NoCue, Reason: fmt.Sprintf(format, args...)}
}
