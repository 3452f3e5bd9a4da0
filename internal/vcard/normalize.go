package vcard

import (
	"bytes"
	"io"
	"mime/quotedprintable"
	"strings"
)

// encodings are vCard 2.1 parameters that may appear without ENCODING=.
var encodings = map[string]bool{
	"QUOTED-PRINTABLE": true,
	"BASE64":           true,
	"B":                true,
	"7BIT":             true,
	"8BIT":             true,
}

// normalizeLine rewrites one vCard 2.1 property line into the KEY=value
// parameter form go-vcard reads:
//
//	TEL;CELL;PREF:123                         -> TEL;TYPE=CELL;TYPE=PREF:123
//	FN;CHARSET=UTF-8;ENCODING=QUOTED-PRINTABLE:Jos=C3=A9 -> FN:José
//
// Quoted-printable values are decoded and the ENCODING and CHARSET
// parameters dropped. Lines without parameters are returned unchanged.
func normalizeLine(line string) string {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return line
	}
	head, value := line[:i], line[i+1:]
	if !strings.Contains(head, ";") {
		return line
	}

	parts := strings.Split(head, ";")
	params := []string{parts[0]}
	qp := false
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		k, v, hasValue := strings.Cut(p, "=")
		upper := strings.ToUpper(k)
		switch {
		case !hasValue && encodings[upper]:
			qp = qp || upper == "QUOTED-PRINTABLE"
		case !hasValue:
			params = append(params, "TYPE="+p)
		case upper == "ENCODING":
			if strings.EqualFold(v, "QUOTED-PRINTABLE") {
				qp = true
			} else {
				params = append(params, p)
			}
		case upper == "CHARSET":
			// values are treated as UTF-8
		default:
			params = append(params, p)
		}
	}

	if qp {
		value = escapeText(decodeQuotedPrintable(value))
	}
	return strings.Join(params, ";") + ":" + value
}

// decodeQuotedPrintable decodes s, keeping the input when it is malformed.
func decodeQuotedPrintable(s string) string {
	out, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		return s
	}
	return string(bytes.TrimRight(out, "\r\n"))
}

// escapeText escapes backslashes and line breaks so a decoded value stays on
// one line.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
