package testutil

import "wa-go/internal/migrate"

// StubCardParser returns fixed cards and records its input.
// When Panic is set, Parse panics with it.
type StubCardParser struct {
	Cards []migrate.Card
	Err   error
	Panic any

	Lines [][]string
}

func (p *StubCardParser) Parse(lines []string, raw string) ([]migrate.Card, error) {
	p.Lines = append(p.Lines, lines)
	if p.Panic != nil {
		panic(p.Panic)
	}
	return p.Cards, p.Err
}

var _ migrate.CardParser = (*StubCardParser)(nil)

// StrPtr returns a pointer to s, for Card.Name.
func StrPtr(s string) *string { return &s }
