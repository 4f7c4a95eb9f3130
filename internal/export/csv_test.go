package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/usecase/intake"
)

func TestWriteSessionCSV(t *testing.T) {
	sess := intake.Session{
		ID:         "sess-1",
		ProjectID:  "bridge-14",
		SnapshotID: "snap-a",
		Checklist:  intake.CulvertChecklist(),
		Phase:      intake.PhaseComplete,
		Answers: []intake.FieldAnswer{
			{
				FieldID: "flow_rate",
				Value:   "2.4",
				Citations: []domain.Citation{{
					Identifier: "Cl. 5.2",
					SnapshotID: "snap-a",
					DocTitle:   "Drainage Spec",
					Revision:   "C",
					Page:       12,
				}},
			},
			{FieldID: "pipe_class", Value: "Class 4", CitationGap: true},
		},
	}

	var buf bytes.Buffer
	if err := WriteSessionCSV(&buf, sess); err != nil {
		t.Fatalf("WriteSessionCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}

	if rows[0][0] != "session_id" || rows[0][7] != "citations" {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[0] != "sess-1" || first[2] != "snap-a" || first[3] != "flow_rate" || first[5] != "2.4" {
		t.Errorf("first row = %v", first)
	}
	if first[4] != "Design flow rate (m3/s)" {
		t.Errorf("prompt column = %q", first[4])
	}
	if first[6] != "false" || first[7] != "Cl. 5.2 (Drainage Spec rev C, p. 12)" {
		t.Errorf("citation columns = %q %q", first[6], first[7])
	}

	gap := rows[2]
	if gap[6] != "true" || gap[7] != "" {
		t.Errorf("gap row = %v", gap)
	}
}
