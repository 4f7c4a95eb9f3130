package domain

// Identifier is a canonical structural label for a unit, e.g. "Cl. 8.3.2",
// "Table 4", "Footnote 3" or "Drawing SD1246". The zero value means the unit
// carries no identifier ("unidentified"). Normalization from raw-text variants
// to the canonical form is the extractor's job and is deterministic: a raw
// string maps to exactly one Identifier or to Unidentified, never to a guess.
type Identifier string

// Unidentified is the absent identifier.
const Unidentified Identifier = ""

// IsUnidentified reports whether the identifier is absent.
func (i Identifier) IsUnidentified() bool { return i == Unidentified }

// String returns the canonical form.
func (i Identifier) String() string { return string(i) }
