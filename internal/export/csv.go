// Package export renders completed intake sessions as flat files for
// downstream review. Every row carries the snapshot id so the export is
// auditable against the exact corpus version it was produced from.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/usecase/intake"
)

var header = []string{
	"session_id", "project_id", "snapshot_id",
	"field_id", "prompt", "value", "citation_gap", "citations",
}

// WriteSessionCSV writes one session transcript, one row per answered field.
// Fields flagged with a citation gap are exported with an empty citations
// column and citation_gap=true so reviewers can spot unproven values.
func WriteSessionCSV(w io.Writer, sess intake.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, ans := range sess.Answers {
		field := lookupField(sess.Checklist, ans.FieldID)
		row := []string{
			sess.ID,
			sess.ProjectID,
			sess.SnapshotID,
			ans.FieldID,
			field.Prompt,
			ans.Value,
			boolStr(ans.CitationGap),
			joinCitations(ans.Citations),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", ans.FieldID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func lookupField(checklist []intake.Field, id string) intake.Field {
	for _, f := range checklist {
		if f.ID == id {
			return f
		}
	}
	return intake.Field{ID: id}
}

// joinCitations renders the citation list as "Cl. 8.3.2 (Spec rev B, p. 12)"
// entries separated by "; " inside a single CSV cell.
func joinCitations(citations []domain.Citation) string {
	labels := make([]string, 0, len(citations))
	for _, c := range citations {
		labels = append(labels, citationLabel(c))
	}
	return strings.Join(labels, "; ")
}

func citationLabel(c domain.Citation) string {
	if c.Identifier.IsUnidentified() {
		return fmt.Sprintf("%s rev %s, p. %d", c.DocTitle, c.Revision, c.Page)
	}
	return fmt.Sprintf("%s (%s rev %s, p. %d)", c.Identifier, c.DocTitle, c.Revision, c.Page)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
