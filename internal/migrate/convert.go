package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UnknownPhoneType is used for phone numbers without a type annotation.
const UnknownPhoneType = "unknown"

// Contact is one entry of contacts.json.
type Contact struct {
	Name   string   `json:"name,omitempty"`
	Phones []Phone  `json:"phones"`
	Emails []string `json:"emails,omitempty"`
}

// Phone is a number with its type annotations, e.g. ["CELL", "PREF"].
type Phone struct {
	Type   []string `json:"type"`
	Number string   `json:"number"`
}

// Convert turns the contact cards in the file at in into contacts.json at out.
// A missing input is ErrNotFound; a parser failure is ErrParse.
func (s *Service) Convert(ctx context.Context, in, out string, dryRun bool) (*Report, error) {
	rep := s.newReport(StageConvert)
	defer s.finish(rep)

	ok, err := fileExists(in)
	if err != nil {
		return rep, stageErr(StageConvert, KindIO, in, err)
	}
	if !ok {
		return rep, stageErr(StageConvert, KindNotFound, in, errors.New("input file not found"))
	}

	if dryRun {
		s.logger.Info("would convert contacts", "in", in, "out", out)
		return rep, nil
	}

	s.logger.Info("parsing contacts", "path", in)
	raw, err := os.ReadFile(in)
	if err != nil {
		return rep, stageErr(StageConvert, KindIO, in, err)
	}
	if err := interrupted(ctx, StageConvert); err != nil {
		return rep, err
	}

	lines := UnfoldString(string(raw))
	cards, err := s.parseCards(lines, string(raw))
	if err != nil {
		return rep, stageErr(StageConvert, KindParse, in, err)
	}

	contacts := ContactsFromCards(cards)
	if err := writeContacts(out, contacts); err != nil {
		return rep, stageErr(StageConvert, KindIO, out, err)
	}

	rep.Count = len(contacts)
	rep.Outcomes = append(rep.Outcomes, Found(ContactsJSONName, out))
	s.logger.Info("converted contacts", "out", out, "contacts", rep.Count)
	return rep, nil
}

// parseCards calls the parser, turning a panic into an error.
func (s *Service) parseCards(lines []string, raw string) (cards []Card, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panicked: %v", r)
		}
	}()
	return s.parser.Parse(lines, raw)
}

// ContactsFromCards maps parsed cards to contacts, keeping card order.
func ContactsFromCards(cards []Card) []Contact {
	contacts := make([]Contact, 0, len(cards))
	for _, card := range cards {
		c := Contact{Phones: []Phone{}}
		if card.Name != nil {
			c.Name = *card.Name
		}
		for _, tel := range card.Phones {
			types := tel.Types
			if len(types) == 0 {
				types = []string{UnknownPhoneType}
			}
			c.Phones = append(c.Phones, Phone{Type: types, Number: tel.Value})
		}
		for _, email := range card.Emails {
			c.Emails = append(c.Emails, email.Value)
		}
		contacts = append(contacts, c)
	}
	return contacts
}

func writeContacts(path string, contacts []Contact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(contacts); err != nil {
		f.Close()
		return fmt.Errorf("encoding contacts: %w", err)
	}
	return f.Close()
}
