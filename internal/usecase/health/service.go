package health

import (
	"context"
	"time"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check pings each dependency and aggregates the results. A single failing
// dependency degrades the report rather than failing it outright.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	overall := StatusHealthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckResult{Status: StatusDegraded, Error: err.Error()}
		overall = StatusDegraded
	} else {
		checks["database"] = CheckResult{Status: StatusHealthy}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckResult{Status: StatusDegraded, Error: err.Error()}
			overall = StatusDegraded
		} else {
			checks["embedding"] = CheckResult{Status: StatusHealthy}
		}
	}

	return Report{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}
