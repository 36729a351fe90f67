package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidInput is surfaced when the input document is structurally
// invalid (not a term with a list of sources). Everything below that
// level degrades locally with diagnostics.
var ErrInvalidInput = errors.New("invalid input document")

// Document is the input contract from the per-source parsing layer: one
// lookup term with already-parsed entries from each consulted source.
// Network clients and grammar parsing live outside this system.
type Document struct {
	Term    string   `json:"term"`
	Lang    string   `json:"lang"`
	Sources []Source `json:"sources"`
}

// Source is one dictionary or tool that contributed parsed entries.
type Source struct {
	ID       string  `json:"id"`
	Priority int     `json:"priority"` // Lower is consulted first
	Primary  bool    `json:"primary"`  // Authoritative for the query language
	Entries  []Entry `json:"entries"`
}

// Entry is one parsed dictionary entry, already split into discrete
// senses by the external parser.
type Entry struct {
	EntryID string  `json:"entry_id"`
	Senses  []Sense `json:"senses"`
}

// Sense is one discrete sense within a parsed entry.
type Sense struct {
	Ref          string   `json:"ref"` // Stable sub-sense locator within the entry
	Text         string   `json:"text"`
	PartOfSpeech string   `json:"pos,omitempty"`
	Domains      []string `json:"domains,omitempty"`
	Registers    []string `json:"registers,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"` // Only for stochastic sources
}

// ParseDocument decodes and structurally validates an input document.
func ParseDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if doc.Term == "" {
		return nil, fmt.Errorf("%w: missing term", ErrInvalidInput)
	}
	if doc.Sources == nil {
		return nil, fmt.Errorf("%w: missing sources", ErrInvalidInput)
	}
	for i, src := range doc.Sources {
		if src.ID == "" {
			return nil, fmt.Errorf("%w: source %d has no id", ErrInvalidInput, i)
		}
	}
	return &doc, nil
}
