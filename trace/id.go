// Package trace models traceability identifiers found in project documentation.
//
// An identifier has the shape T<tier>-<CATEGORY>-<number>, for example
// T1-REQ-001. The grammar is fixed; the id_format entry of a project
// configuration is informational and never changes what is matched here.
package trace

import (
	"fmt"
	"regexp"
	"strconv"
)

// Pattern is the identifier grammar used for every scan.
const Pattern = `T(\d+)-([A-Z]+)-(\d+)`

var (
	// idRe matches identifiers anywhere inside a line of text.
	idRe = regexp.MustCompile(Pattern)
	// exactRe matches a string that is exactly one identifier.
	exactRe = regexp.MustCompile(`^` + Pattern + `$`)
)

// ID is a parsed traceability identifier.
type ID struct {
	// Tier is the tier prefix including the leading T (e.g. "T1").
	Tier string `json:"tier"`

	// Category is the uppercase category segment (e.g. "REQ").
	Category string `json:"category"`

	// Number is the numeric suffix with zero padding removed.
	Number int `json:"number"`

	// FullID is the identifier exactly as written (e.g. "T1-REQ-001").
	FullID string `json:"full_id"`
}

// String returns the canonical text form.
func (id ID) String() string {
	return id.FullID
}

// Parse parses s as a single identifier.
func Parse(s string) (ID, error) {
	m := exactRe.FindStringSubmatch(s)
	if m == nil {
		return ID{}, fmt.Errorf("invalid traceability ID %q: want form %s", s, Pattern)
	}
	return fromMatch(m)
}

// FindAll returns every identifier occurring in text, in order of
// appearance. Repeated identifiers are returned once per occurrence.
func FindAll(text string) []ID {
	matches := idRe.FindAllStringSubmatch(text, -1)
	ids := make([]ID, 0, len(matches))
	for _, m := range matches {
		id, err := fromMatch(m)
		if err != nil {
			// Number overflowed int; the text still matched the grammar.
			id = ID{Tier: "T" + m[1], Category: m[2], FullID: m[0]}
		}
		ids = append(ids, id)
	}
	return ids
}

func fromMatch(m []string) (ID, error) {
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return ID{}, fmt.Errorf("parse number of %q: %w", m[0], err)
	}
	return ID{
		Tier:     "T" + m[1],
		Category: m[2],
		Number:   n,
		FullID:   m[0],
	}, nil
}
