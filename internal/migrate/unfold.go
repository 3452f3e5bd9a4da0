package migrate

import (
	"fmt"
	"io"
	"strings"
)

// skipField is the inline binary payload field whose folded body is dropped.
const skipField = "PHOTO"

// Unfold reads raw contact-card text and returns its logical lines.
// See UnfoldString.
func Unfold(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading contact cards: %w", err)
	}
	return UnfoldString(string(raw)), nil
}

// UnfoldString joins folded physical lines into logical lines:
//
//   - empty lines are dropped
//   - a PHOTO line and its indented continuation lines are dropped
//   - a line following one that ends in "=" is appended verbatim, "=" removed
//   - a line starting with space or tab is appended with that run trimmed
//   - any other line starts a new logical line
//
// Any line ending is accepted and invalid UTF-8 is discarded. The output
// never contains an empty line.
func UnfoldString(raw string) []string {
	raw = strings.ToValidUTF8(raw, "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var (
		out     []string
		current string
		skip    bool
	)
	flush := func() {
		if current != "" {
			out = append(out, current)
		}
		current = ""
	}

	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}

		folded := line[0] == ' ' || line[0] == '\t'
		if skip {
			if folded {
				continue
			}
			skip = false
		}
		if strings.HasPrefix(strings.ToUpper(line), skipField) {
			skip = true
			continue
		}

		switch {
		case current == "":
			current = line
		case strings.HasSuffix(current, "="):
			current = current[:len(current)-1] + line
		case folded:
			current += strings.TrimLeft(line, " \t")
		default:
			flush()
			current = line
		}
	}
	flush()

	return out
}
