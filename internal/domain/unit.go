package domain

// UnitKey is the stable arena index of a unit within one snapshot. Parent links
// are stored as keys, not references, so the unit tree carries no ownership
// cycles and survives serialization unchanged.
type UnitKey int

// NoParent marks a top-level unit.
const NoParent UnitKey = -1

// Unit is one addressable piece of a document: a page, clause, table, footnote
// or drawing sheet. Units are immutable after parsing; identifier assignment
// produces a copy.
type Unit struct {
	key        UnitKey
	kind       UnitKind
	identifier Identifier
	rawVariant string
	parent     UnitKey
	doc        int
	text       string
	page       int
	ordinal    int
}

// NewUnit creates an unkeyed unit. The arena assigns key and ordinal on append.
func NewUnit(kind UnitKind, parent UnitKey, doc int, text string, page int) Unit {
	return Unit{key: -1, kind: kind, parent: parent, doc: doc, text: text, page: page, ordinal: -1}
}

// ReconstructUnit creates a fully-populated unit (storage hydration).
func ReconstructUnit(
	key UnitKey, kind UnitKind, identifier Identifier, rawVariant string,
	parent UnitKey, doc int, text string, page, ordinal int,
) Unit {
	return Unit{
		key: key, kind: kind, identifier: identifier, rawVariant: rawVariant,
		parent: parent, doc: doc, text: text, page: page, ordinal: ordinal,
	}
}

// Key returns the arena key.
func (u Unit) Key() UnitKey { return u.key }

// Kind returns the unit kind.
func (u Unit) Kind() UnitKind { return u.kind }

// Identifier returns the canonical identifier, or Unidentified.
func (u Unit) Identifier() Identifier { return u.identifier }

// RawVariant returns the raw text the identifier was extracted from.
func (u Unit) RawVariant() string { return u.rawVariant }

// Parent returns the parent unit key, or NoParent.
func (u Unit) Parent() UnitKey { return u.parent }

// Doc returns the index of the owning document within the snapshot.
func (u Unit) Doc() int { return u.doc }

// Text returns the raw unit text.
func (u Unit) Text() string { return u.text }

// Page returns the 1-based page number.
func (u Unit) Page() int { return u.page }

// Ordinal returns the bounding ordinal used for reading-order tie-breaks.
func (u Unit) Ordinal() int { return u.ordinal }

// WithIdentifier returns a copy carrying the extracted identifier.
func (u Unit) WithIdentifier(id Identifier, rawVariant string) Unit {
	u.identifier = id
	u.rawVariant = rawVariant
	return u
}

// Arena owns the units of one snapshot. Keys are append order; the ordinal is
// assigned from the same counter, so reading order is preserved even when the
// logical numbering of a document is non-monotonic.
type Arena struct {
	units []Unit
}

// Append keys the unit and stores it, returning the assigned key.
func (a *Arena) Append(u Unit) UnitKey {
	key := UnitKey(len(a.units))
	u.key = key
	u.ordinal = int(key)
	a.units = append(a.units, u)
	return key
}

// ReconstructArena rebuilds an arena from persisted units. Units must be in
// key order with their original keys and ordinals intact.
func ReconstructArena(units []Unit) *Arena {
	return &Arena{units: units}
}

// Replace swaps the unit stored at u's own key. Used by the extractor to
// attach identifiers before the snapshot is sealed.
func (a *Arena) Replace(u Unit) {
	if u.key >= 0 && int(u.key) < len(a.units) {
		a.units[u.key] = u
	}
}

// Get returns the unit at key.
func (a *Arena) Get(key UnitKey) (Unit, bool) {
	if key < 0 || int(key) >= len(a.units) {
		return Unit{}, false
	}
	return a.units[key], true
}

// Units returns the units in key order. Callers must not mutate the slice.
func (a *Arena) Units() []Unit { return a.units }

// Len returns the number of units.
func (a *Arena) Len() int { return len(a.units) }
