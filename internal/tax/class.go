package tax

import (
	"encoding/json"
	"strings"
)

// Class names the rate category applied to a line, e.g. "standard" or
// "reduced-rate". The empty slug and "standard" are the same class; the
// mapping happens only at the JSON boundary so the engine never compares
// empty strings.
type Class string

// ClassStandard is the default class applied when a line carries no slug.
const ClassStandard Class = "standard"

// classInherit is the store-level shipping setting meaning "use standard".
const classInherit = "inherit"

// ClassFromSlug normalises a stored slug into a Class.
func ClassFromSlug(slug string) Class {
	s := strings.TrimSpace(strings.ToLower(slug))
	switch s {
	case "", string(ClassStandard):
		return ClassStandard
	case classInherit:
		return ClassStandard
	default:
		return Class(s)
	}
}

// Slug returns the serialised form of the class. Standard maps back to "".
func (c Class) Slug() string {
	if c == ClassStandard || c == "" {
		return ""
	}
	return string(c)
}

// MarshalJSON serialises the class using its slug form.
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Slug())
}

// UnmarshalJSON parses a slug into a normalised class.
func (c *Class) UnmarshalJSON(data []byte) error {
	var slug string
	if err := json.Unmarshal(data, &slug); err != nil {
		return err
	}
	*c = ClassFromSlug(slug)
	return nil
}

// Status describes whether a line is taxed at all.
type Status string

const (
	// StatusTaxable lines receive the full class-matched rate set.
	StatusTaxable Status = "taxable"
	// StatusNone lines are exempt and always yield zero tax.
	StatusNone Status = "none"
	// StatusShipping lines are taxed through shipping-flagged rates only.
	StatusShipping Status = "shipping"
)

// StatusFromSlug normalises a stored status, defaulting to taxable.
func StatusFromSlug(slug string) Status {
	switch strings.TrimSpace(strings.ToLower(slug)) {
	case string(StatusNone):
		return StatusNone
	case string(StatusShipping):
		return StatusShipping
	default:
		return StatusTaxable
	}
}
