package migrate

import (
	"context"
	"errors"
	"fmt"
)

// Stage names one phase of the migration pipeline.
type Stage string

const (
	StagePull    Stage = "pull"
	StageDecrypt Stage = "decrypt"
	StageConvert Stage = "convert"
	StagePush    Stage = "push"
)

// ErrorKind classifies stage failures.
type ErrorKind int

const (
	KindConfig       ErrorKind = iota + 1 // missing key or other required setting
	KindPrecondition                      // no device, non-empty target, missing remote root
	KindNotFound                          // required input file absent
	KindToolError                         // transport or decryption utility failed
	KindParse                             // contact-card parser failed
	KindIO                                // local filesystem failure
	KindInterrupted                       // context cancelled, e.g. by SIGINT
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not found"
	case KindToolError:
		return "tool error"
	case KindParse:
		return "parse error"
	case KindIO:
		return "io error"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Sentinels matched with errors.Is against a *StageError.
var (
	ErrConfig       = errors.New("configuration error")
	ErrPrecondition = errors.New("precondition failed")
	ErrNotFound     = errors.New("not found")
	ErrToolFailed   = errors.New("external tool failed")
	ErrParse        = errors.New("parse failed")
	ErrInterrupted  = errors.New("interrupted")
)

// ErrNoKey is returned by Decrypt when no key is resolvable.
var ErrNoKey = fmt.Errorf("%w: 'key' is required (via CLI or config)", ErrConfig)

// StageError is the hard failure of one stage.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Path  string // local or remote path involved, if any
	Err   error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

// Is lets errors.Is match a StageError against the kind sentinels.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrPrecondition:
		return e.Kind == KindPrecondition
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrToolFailed:
		return e.Kind == KindToolError
	case ErrParse:
		return e.Kind == KindParse
	case ErrInterrupted:
		return e.Kind == KindInterrupted
	}
	return false
}

func stageErr(stage Stage, kind ErrorKind, path string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Path: path, Err: err}
}

// interrupted returns a StageError wrapping ctx.Err() once ctx is done, and
// nil otherwise. Stages call it between steps so a cancelled run stops
// instead of turning every remaining step into a warning.
func interrupted(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return stageErr(stage, KindInterrupted, "", err)
	}
	return nil
}
