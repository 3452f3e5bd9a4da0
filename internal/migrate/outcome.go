package migrate

import "fmt"

// OutcomeKind is the result of looking for, or acting on, one item.
type OutcomeKind int

const (
	OutcomeNotFound OutcomeKind = iota
	OutcomeFound
	OutcomeToolError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeToolError:
		return "tool error"
	default:
		return "not found"
	}
}

// Outcome is Found(path) | NotFound | ToolError(detail) for a single item.
// Stages return these instead of failing so that "warn and continue" is an
// explicit branch at the call site.
type Outcome struct {
	Item string // logical name, e.g. "wa.db"
	Kind OutcomeKind
	Path string
	Err  error
}

func Found(item, path string) Outcome {
	return Outcome{Item: item, Kind: OutcomeFound, Path: path}
}

func NotFound(item string) Outcome {
	return Outcome{Item: item, Kind: OutcomeNotFound}
}

func ToolError(item, path string, err error) Outcome {
	return Outcome{Item: item, Kind: OutcomeToolError, Path: path, Err: err}
}

func (o Outcome) Found() bool { return o.Kind == OutcomeFound }

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFound:
		return fmt.Sprintf("%s: found at %s", o.Item, o.Path)
	case OutcomeToolError:
		return fmt.Sprintf("%s: %v", o.Item, o.Err)
	default:
		return fmt.Sprintf("%s: not found", o.Item)
	}
}

// CheckFunc reports whether candidate exists (or was acted on successfully).
// An error means the check could not tell.
type CheckFunc func(candidate string) (bool, error)

// FirstExisting walks candidates in priority order and returns Found for the
// first one check accepts. If none is accepted it returns NotFound, or
// ToolError carrying the last check error when any check failed.
func FirstExisting(item string, candidates []string, check CheckFunc) Outcome {
	var lastErr error
	for _, c := range candidates {
		ok, err := check(c)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return Found(item, c)
		}
	}
	if lastErr != nil {
		return ToolError(item, "", lastErr)
	}
	return NotFound(item)
}
