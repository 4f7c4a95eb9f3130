package snapshot

import (
	"time"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
)

// snapshotDTO is the JSON persistence shape of a snapshot plus its semantic
// index entries. The exact index is cheap to rebuild from the units, so only
// vectors are stored.
type snapshotDTO struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Documents []documentDTO `json:"documents"`
	Units     []unitDTO     `json:"units"`
	Entries   []entryDTO    `json:"entries"`
}

type documentDTO struct {
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	Revision   string    `json:"revision"`
	IngestedAt time.Time `json:"ingested_at"`
}

type unitDTO struct {
	Key        int    `json:"key"`
	Kind       string `json:"kind"`
	Identifier string `json:"identifier,omitempty"`
	RawVariant string `json:"raw_variant,omitempty"`
	Parent     int    `json:"parent"`
	Doc        int    `json:"doc"`
	Text       string `json:"text"`
	Page       int    `json:"page"`
	Ordinal    int    `json:"ordinal"`
}

type entryDTO struct {
	Unit   int       `json:"unit"`
	Vector []float32 `json:"vector"`
}

func toDTO(idx *index.Index) snapshotDTO {
	snap := idx.Snapshot()
	dto := snapshotDTO{
		ID:        snap.ID(),
		CreatedAt: snap.CreatedAt(),
	}
	for _, d := range snap.Documents() {
		dto.Documents = append(dto.Documents, documentDTO{
			Title:      d.Title(),
			Kind:       string(d.Kind()),
			Revision:   d.Revision(),
			IngestedAt: d.IngestedAt(),
		})
	}
	for _, u := range snap.Units().Units() {
		dto.Units = append(dto.Units, unitDTO{
			Key:        int(u.Key()),
			Kind:       string(u.Kind()),
			Identifier: string(u.Identifier()),
			RawVariant: u.RawVariant(),
			Parent:     int(u.Parent()),
			Doc:        u.Doc(),
			Text:       u.Text(),
			Page:       u.Page(),
			Ordinal:    u.Ordinal(),
		})
	}
	for _, e := range idx.Entries() {
		dto.Entries = append(dto.Entries, entryDTO{Unit: int(e.Unit), Vector: e.Vector})
	}
	return dto
}

func fromDTO(dto snapshotDTO) (*domain.Snapshot, []index.Entry) {
	docs := make([]domain.Document, 0, len(dto.Documents))
	for _, d := range dto.Documents {
		docs = append(docs, domain.ReconstructDocument(
			d.Title, domain.DocumentKind(d.Kind), d.Revision, d.IngestedAt,
		))
	}

	units := make([]domain.Unit, 0, len(dto.Units))
	for _, u := range dto.Units {
		units = append(units, domain.ReconstructUnit(
			domain.UnitKey(u.Key), domain.UnitKind(u.Kind),
			domain.Identifier(u.Identifier), u.RawVariant,
			domain.UnitKey(u.Parent), u.Doc, u.Text, u.Page, u.Ordinal,
		))
	}
	arena := domain.ReconstructArena(units)

	entries := make([]index.Entry, 0, len(dto.Entries))
	for _, e := range dto.Entries {
		entries = append(entries, index.Entry{Unit: domain.UnitKey(e.Unit), Vector: e.Vector})
	}

	return domain.NewSnapshot(dto.ID, dto.CreatedAt, docs, arena), entries
}
