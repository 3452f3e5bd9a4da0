package vcard_test

import (
	"errors"
	"strings"
	"testing"

	"wa-go/internal/migrate"
	"wa-go/internal/vcard"
)

func parse(t *testing.T, raw string) []migrate.Card {
	t.Helper()
	lines := migrate.UnfoldString(raw)
	cards, err := vcard.NewParser().Parse(lines, raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cards
}

func upper(values []string) string {
	return strings.ToUpper(strings.Join(values, ","))
}

func TestParser_Parse_V3(t *testing.T) {
	raw := "BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"FN:Alice Example\r\n" +
		"TEL;TYPE=CELL:+1 555 0100\r\n" +
		"TEL:+1 555 0101\r\n" +
		"EMAIL;TYPE=INTERNET:alice@example.com\r\n" +
		"END:VCARD\r\n" +
		"BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"TEL;TYPE=HOME:42\r\n" +
		"END:VCARD\r\n"

	cards := parse(t, raw)
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}

	alice := cards[0]
	if alice.Name == nil || *alice.Name != "Alice Example" {
		t.Errorf("Name = %v, want Alice Example", alice.Name)
	}
	if len(alice.Phones) != 2 {
		t.Fatalf("got %d phones, want 2", len(alice.Phones))
	}
	if alice.Phones[0].Value != "+1 555 0100" || upper(alice.Phones[0].Types) != "CELL" {
		t.Errorf("Phones[0] = %+v", alice.Phones[0])
	}
	if alice.Phones[1].Value != "+1 555 0101" || len(alice.Phones[1].Types) != 0 {
		t.Errorf("Phones[1] = %+v, want untyped", alice.Phones[1])
	}
	if len(alice.Emails) != 1 || alice.Emails[0].Value != "alice@example.com" {
		t.Errorf("Emails = %+v", alice.Emails)
	}

	if cards[1].Name != nil {
		t.Errorf("second card Name = %q, want nil", *cards[1].Name)
	}
}

func TestParser_Parse_AndroidExport(t *testing.T) {
	raw := "BEGIN:VCARD\n" +
		"VERSION:2.1\n" +
		"N;CHARSET=UTF-8;ENCODING=QUOTED-PRINTABLE:M=C3=BCller;J=\n" +
		"=C3=BCrgen;;;\n" +
		"FN;CHARSET=UTF-8;ENCODING=QUOTED-PRINTABLE:J=C3=BCrgen M=C3=BCller\n" +
		"TEL;CELL;PREF:+49 170 1234567\n" +
		"PHOTO;ENCODING=BASE64;JPEG:/9j/4AAQSkZJRgABAQAAAQABAAD\n" +
		" AAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n" +
		"\n" +
		"EMAIL;HOME:juergen@example.de\n" +
		"END:VCARD\n"

	cards := parse(t, raw)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}

	c := cards[0]
	if c.Name == nil || *c.Name != "Jürgen Müller" {
		t.Errorf("Name = %v, want Jürgen Müller", c.Name)
	}
	if len(c.Phones) != 1 {
		t.Fatalf("got %d phones, want 1", len(c.Phones))
	}
	if c.Phones[0].Value != "+49 170 1234567" {
		t.Errorf("phone = %q", c.Phones[0].Value)
	}
	if got := upper(c.Phones[0].Types); got != "CELL,PREF" {
		t.Errorf("phone types = %q, want CELL,PREF", got)
	}
	if len(c.Emails) != 1 || c.Emails[0].Value != "juergen@example.de" {
		t.Errorf("Emails = %+v", c.Emails)
	}
}

func TestParser_Parse_Empty(t *testing.T) {
	cards, err := vcard.NewParser().Parse(nil, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("got %d cards, want 0", len(cards))
	}
}

func TestParser_Parse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain text", "this is not a contact card\n"},
		{"property without card", "FN:Ana\nTEL:123\n"},
		{"text between cards", "BEGIN:VCARD\nVERSION:3.0\nFN:Ana\nEND:VCARD\nstray line\nBEGIN:VCARD\nVERSION:3.0\nFN:Ben\nEND:VCARD\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vcard.NewParser().Parse(migrate.UnfoldString(tt.raw), tt.raw)
			if !errors.Is(err, vcard.ErrNotVCard) {
				t.Fatalf("Parse() error = %v, want ErrNotVCard", err)
			}
		})
	}
}

func TestParser_Parse_BlankLinesBetweenCards(t *testing.T) {
	raw := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ana\r\nEND:VCARD\r\n\r\nBEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ben\r\nEND:VCARD\r\n"
	cards, err := vcard.NewParser().Parse(migrate.UnfoldString(raw), raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("got %d cards, want 2", len(cards))
	}
}
