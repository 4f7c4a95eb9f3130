// Package chi is the HTTP transport: hand-written chi handlers over the
// ingest, query, intake and registry services.
package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/registry"
	snaprepo "github.com/specdex/specdex/internal/repository/snapshot"
	healthuc "github.com/specdex/specdex/internal/usecase/health"
	ingestuc "github.com/specdex/specdex/internal/usecase/ingest"
	intakeuc "github.com/specdex/specdex/internal/usecase/intake"
	queryuc "github.com/specdex/specdex/internal/usecase/query"
)

const maxIngestDocuments = 50

// Server exposes the HTTP API.
type Server struct {
	ingest        *ingestuc.Service
	query         *queryuc.Service
	intake        *intakeuc.Service
	registry      *registry.Registry
	snapshots     *snaprepo.Repo
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	query *queryuc.Service,
	intake *intakeuc.Service,
	reg *registry.Registry,
	snapshots *snaprepo.Repo,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:        ingest,
		query:         query,
		intake:        intake,
		registry:      reg,
		snapshots:     snapshots,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chirouter.Router) {
	r.Get("/healthz", s.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/documents:ingest", s.ingestDocuments)
		r.Post("/query", s.resolveQuery)

		r.Route("/projects/{project}", func(r chirouter.Router) {
			r.Put("/pin", s.putPin)
			r.Get("/pin", s.getPin)
			r.Delete("/pin", s.deletePin)
		})

		r.Get("/snapshots", s.listSnapshots)
		r.Get("/snapshots/{id}", s.getSnapshot)

		r.Route("/intake/sessions", func(r chirouter.Router) {
			r.Post("/", s.startSession)
			r.Get("/{id}", s.getSession)
			r.Post("/{id}/answer", s.answerSession)
			r.Delete("/{id}", s.abandonSession)
		})

		r.Post("/export/csv", s.exportCSV)
	})
}

// ingestDocuments handles POST /api/v1/documents:ingest.
func (s *Server) ingestDocuments(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > maxIngestDocuments {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxIngestDocuments))
		return
	}

	docs := make([]ingestuc.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		kind, err := domain.ParseDocumentKind(d.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeUnsupportedKind,
				fmt.Sprintf("document %q: unsupported kind %q", d.Title, d.Kind))
			return
		}
		docs = append(docs, ingestuc.Document{
			Title:    d.Title,
			Kind:     kind,
			Revision: d.Revision,
			Text:     d.Content,
			PDF:      d.PDF,
		})
	}

	res, err := s.ingest.Ingest(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ingestResponse{SnapshotID: res.SnapshotID, Units: res.Units}
	for _, pe := range res.ParseErrors {
		resp.ParseErrors = append(resp.ParseErrors, parseErrorItem{
			Document: pe.Document,
			Page:     pe.Page,
			Reason:   pe.Reason,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// resolveQuery handles POST /api/v1/query.
func (s *Server) resolveQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	var kind domain.DocumentKind
	if req.Kind != "" {
		k, err := domain.ParseDocumentKind(req.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeUnsupportedKind,
				fmt.Sprintf("unsupported kind %q", req.Kind))
			return
		}
		kind = k
	}

	answer, err := s.query.Resolve(r.Context(), queryuc.Request{
		Query:      req.Query,
		ProjectID:  req.ProjectID,
		SnapshotID: req.SnapshotID,
		Kind:       kind,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToWire(answer))
}

// putPin handles PUT /api/v1/projects/{project}/pin.
func (s *Server) putPin(w http.ResponseWriter, r *http.Request) {
	project := chirouter.URLParam(r, "project")

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SnapshotID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "snapshot_id is required")
		return
	}

	if err := s.registry.Pin(r.Context(), project, req.SnapshotID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pinResponse{ProjectID: project, SnapshotID: req.SnapshotID})
}

// getPin handles GET /api/v1/projects/{project}/pin.
func (s *Server) getPin(w http.ResponseWriter, r *http.Request) {
	project := chirouter.URLParam(r, "project")

	snapID, err := s.registry.ResolvePin(r.Context(), project)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pinResponse{ProjectID: project, SnapshotID: snapID})
}

// deletePin handles DELETE /api/v1/projects/{project}/pin.
func (s *Server) deletePin(w http.ResponseWriter, r *http.Request) {
	project := chirouter.URLParam(r, "project")

	if err := s.registry.Unpin(r.Context(), project); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listSnapshots handles GET /api/v1/snapshots.
func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	metas, err := s.snapshots.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]snapshotMeta, len(metas))
	for i, m := range metas {
		items[i] = metaToWire(m)
	}
	writeJSON(w, http.StatusOK, snapshotListResponse{Items: items})
}

// getSnapshot handles GET /api/v1/snapshots/{id}.
func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	snap, _, err := s.snapshots.Load(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	docs := make([]snapshotDocument, 0, len(snap.Documents()))
	for _, d := range snap.Documents() {
		docs = append(docs, snapshotDocument{
			Title:    d.Title(),
			Kind:     d.Kind().String(),
			Revision: d.Revision(),
		})
	}

	writeJSON(w, http.StatusOK, snapshotDetail{
		ID:        snap.ID(),
		CreatedAt: snap.CreatedAt(),
		Documents: docs,
		Units:     snap.Units().Len(),
	})
}

// startSession handles POST /api/v1/intake/sessions.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sess, err := s.intake.Start(r.Context(), req.ProjectID, checklistFromWire(req.Checklist))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionToWire(sess))
}

// answerSession handles POST /api/v1/intake/sessions/{id}/answer.
func (s *Server) answerSession(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	var req answerFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "value is required")
		return
	}

	sess, err := s.intake.Answer(r.Context(), id, req.Value)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToWire(sess))
}

// getSession handles GET /api/v1/intake/sessions/{id}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	sess, err := s.intake.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToWire(sess))
}

// abandonSession handles DELETE /api/v1/intake/sessions/{id}.
func (s *Server) abandonSession(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	sess, err := s.intake.Abandon(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToWire(sess))
}

// exportCSV handles POST /api/v1/export/csv.
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "session_id is required")
		return
	}

	sess, err := s.intake.Get(r.Context(), req.SessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "intake-"+sess.ID+".csv"))
	if err := export.WriteSessionCSV(w, sess); err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
	}
}

// healthCheck handles GET /healthz.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.StatusHealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}
