// Package vcard parses exported contact cards with github.com/emersion/go-vcard.
package vcard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"

	"wa-go/internal/migrate"
)

// Parser implements migrate.CardParser. It accepts vCard 2.1 exports (bare
// type parameters, quoted-printable values) as well as 3.0 and 4.0.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// ErrNotVCard reports content that is not wrapped in BEGIN:VCARD/END:VCARD.
// go-vcard silently skips such lines.
var ErrNotVCard = errors.New("not a vcard")

// Parse decodes unfolded lines into cards. raw is not needed: go-vcard works
// on the logical lines directly.
func (p *Parser) Parse(lines []string, raw string) ([]migrate.Card, error) {
	if err := checkBlocks(lines); err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		b.WriteString(normalizeLine(l))
		b.WriteString("\r\n")
	}

	dec := vcard.NewDecoder(strings.NewReader(b.String()))
	var cards []migrate.Card
	for {
		card, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing contact %d: %w", len(cards)+1, err)
		}
		cards = append(cards, toCard(card))
	}
	if len(cards) == 0 && hasContent(lines) {
		return nil, fmt.Errorf("%w: no BEGIN:VCARD found", ErrNotVCard)
	}
	return cards, nil
}

// checkBlocks fails on any non-blank line outside a BEGIN:VCARD/END:VCARD
// block. Nested blocks (2.1 AGENT) are tracked by depth.
func checkBlocks(lines []string) error {
	depth := 0
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		name, value := propertyName(l)
		switch {
		case name == "BEGIN" && strings.EqualFold(value, "VCARD"):
			depth++
		case name == "END" && strings.EqualFold(value, "VCARD") && depth > 0:
			depth--
		case depth == 0:
			return fmt.Errorf("%w: line %d outside BEGIN:VCARD/END:VCARD: %q", ErrNotVCard, i+1, l)
		}
	}
	return nil
}

// propertyName returns the upper-cased property name of a content line,
// without group prefix or parameters, and its trimmed value.
func propertyName(line string) (name, value string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", ""
	}
	head := line[:i]
	if j := strings.IndexByte(head, ';'); j >= 0 {
		head = head[:j]
	}
	if j := strings.LastIndexByte(head, '.'); j >= 0 {
		head = head[j+1:]
	}
	return strings.ToUpper(strings.TrimSpace(head)), strings.TrimSpace(line[i+1:])
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func toCard(c vcard.Card) migrate.Card {
	var out migrate.Card
	if f := c.Get(vcard.FieldFormattedName); f != nil {
		name := f.Value
		out.Name = &name
	}
	for _, f := range c[vcard.FieldTelephone] {
		out.Phones = append(out.Phones, migrate.CardField{Value: f.Value, Types: fieldTypes(f)})
	}
	for _, f := range c[vcard.FieldEmail] {
		out.Emails = append(out.Emails, migrate.CardField{Value: f.Value, Types: fieldTypes(f)})
	}
	return out
}

// fieldTypes returns the TYPE parameter values as written, comma lists split.
func fieldTypes(f *vcard.Field) []string {
	var types []string
	for _, v := range f.Params[vcard.ParamType] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}
	return types
}

var _ migrate.CardParser = (*Parser)(nil)
