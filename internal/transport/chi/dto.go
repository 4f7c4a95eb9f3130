package chi

import (
	"time"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/repository/snapshot"
	"github.com/specdex/specdex/internal/usecase/intake"
)

type ingestDocument struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Revision string `json:"revision"`
	Content  string `json:"content,omitempty"`
	PDF      []byte `json:"pdf,omitempty"`
}

type ingestRequest struct {
	Documents []ingestDocument `json:"documents"`
}

type parseErrorItem struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	Reason   string `json:"reason"`
}

type ingestResponse struct {
	SnapshotID  string           `json:"snapshot_id"`
	Units       int              `json:"units"`
	ParseErrors []parseErrorItem `json:"parse_errors,omitempty"`
}

type queryRequest struct {
	Query      string `json:"query"`
	ProjectID  string `json:"project_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

type citationItem struct {
	Identifier string `json:"identifier,omitempty"`
	SnapshotID string `json:"snapshot_id"`
	DocTitle   string `json:"doc_title"`
	Revision   string `json:"revision"`
	Page       int    `json:"page"`
	Snippet    string `json:"snippet"`
}

type answerResponse struct {
	Text       string         `json:"text,omitempty"`
	Citations  []citationItem `json:"citations,omitempty"`
	Confidence float64        `json:"confidence"`
	SnapshotID string         `json:"snapshot_id"`
	Refused    bool           `json:"refused"`
	Reason     string         `json:"reason,omitempty"`
}

type pinRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

type pinResponse struct {
	ProjectID  string `json:"project_id"`
	SnapshotID string `json:"snapshot_id"`
}

type snapshotMeta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Documents int       `json:"documents"`
	Units     int       `json:"units"`
}

type snapshotListResponse struct {
	Items []snapshotMeta `json:"items"`
}

type snapshotDocument struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Revision string `json:"revision"`
}

type snapshotDetail struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Documents []snapshotDocument `json:"documents"`
	Units     int                `json:"units"`
}

type checklistField struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Lookup string `json:"lookup"`
}

type startSessionRequest struct {
	ProjectID string           `json:"project_id,omitempty"`
	Checklist []checklistField `json:"checklist,omitempty"`
}

type answerFieldRequest struct {
	Value string `json:"value"`
}

type fieldAnswerItem struct {
	FieldID     string         `json:"field_id"`
	Value       string         `json:"value"`
	Citations   []citationItem `json:"citations,omitempty"`
	CitationGap bool           `json:"citation_gap"`
}

type sessionResponse struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id,omitempty"`
	SnapshotID   string            `json:"snapshot_id"`
	Phase        string            `json:"phase"`
	Checklist    []checklistField  `json:"checklist"`
	Answers      []fieldAnswerItem `json:"answers,omitempty"`
	CurrentField *checklistField   `json:"current_field,omitempty"`
}

type exportRequest struct {
	SessionID string `json:"session_id"`
}

func answerToWire(a domain.Answer) answerResponse {
	return answerResponse{
		Text:       a.Text,
		Citations:  citationsToWire(a.Citations),
		Confidence: a.Confidence,
		SnapshotID: a.SnapshotID,
		Refused:    a.Refused,
		Reason:     a.Reason,
	}
}

func citationsToWire(cs []domain.Citation) []citationItem {
	if len(cs) == 0 {
		return nil
	}
	items := make([]citationItem, len(cs))
	for i, c := range cs {
		items[i] = citationItem{
			Identifier: c.Identifier.String(),
			SnapshotID: c.SnapshotID,
			DocTitle:   c.DocTitle,
			Revision:   c.Revision,
			Page:       c.Page,
			Snippet:    c.Snippet,
		}
	}
	return items
}

func metaToWire(m snapshot.Meta) snapshotMeta {
	return snapshotMeta{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Documents: m.Documents,
		Units:     m.Units,
	}
}

func sessionToWire(s intake.Session) sessionResponse {
	checklist := make([]checklistField, len(s.Checklist))
	for i, f := range s.Checklist {
		checklist[i] = checklistField{ID: f.ID, Prompt: f.Prompt, Lookup: f.Lookup}
	}

	var answers []fieldAnswerItem
	for _, a := range s.Answers {
		answers = append(answers, fieldAnswerItem{
			FieldID:     a.FieldID,
			Value:       a.Value,
			Citations:   citationsToWire(a.Citations),
			CitationGap: a.CitationGap,
		})
	}

	resp := sessionResponse{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		SnapshotID: s.SnapshotID,
		Phase:      string(s.Phase),
		Checklist:  checklist,
		Answers:    answers,
	}
	if f, ok := s.Current(); ok {
		cf := checklistField{ID: f.ID, Prompt: f.Prompt, Lookup: f.Lookup}
		resp.CurrentField = &cf
	}
	return resp
}

func checklistFromWire(fields []checklistField) []intake.Field {
	if len(fields) == 0 {
		return intake.CulvertChecklist()
	}
	out := make([]intake.Field, len(fields))
	for i, f := range fields {
		out[i] = intake.Field{ID: f.ID, Prompt: f.Prompt, Lookup: f.Lookup}
	}
	return out
}
