package domain

// Citation is the unit of proof behind an answer: a unit reference, its
// identifier and the snapshot it was resolved against, plus enough document
// metadata (title, revision, page) for a renderer to cite it without
// re-querying the index. A citation is never a bare excerpt.
type Citation struct {
	Unit       UnitKey
	Identifier Identifier
	SnapshotID string
	DocTitle   string
	Revision   string
	Page       int
	Snippet    string
}

// Answer is the result of one query: a synthesis drawn strictly from the
// cited units, the ordered minimal citation set, and the confidence behind
// it. A refusal is a designed outcome, not an error: Refused is set and the
// citation list is empty.
type Answer struct {
	Text       string
	Citations  []Citation
	Confidence float64
	SnapshotID string
	Refused    bool
	Reason     string
}

// Refusal builds the no-confident-answer outcome for a snapshot.
func Refusal(snapshotID, reason string, confidence float64) Answer {
	return Answer{SnapshotID: snapshotID, Refused: true, Reason: reason, Confidence: confidence}
}
