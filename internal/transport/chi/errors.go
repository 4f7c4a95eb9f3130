package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/domain"
)

// ErrorCode is the machine-readable error discriminator on the wire.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeSnapshotNotFound       ErrorCode = "snapshot_not_found"
	CodeEmptyIndex             ErrorCode = "empty_index"
	CodeIndexBuildConflict     ErrorCode = "index_build_conflict"
	CodePinNotFound            ErrorCode = "pin_not_found"
	CodeUnsupportedKind        ErrorCode = "unsupported_kind"
	CodeNoDocuments            ErrorCode = "no_documents"
	CodeSessionNotFound        ErrorCode = "session_not_found"
	CodeSessionConflict        ErrorCode = "session_conflict"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownSnapshot,
		domain.ErrEmptyIndex,
		domain.ErrIndexBuildConflict,
		domain.ErrPinNotFound,
		domain.ErrUnsupportedKind,
		domain.ErrNoDocuments,
		domain.ErrSessionNotFound,
		domain.ErrSessionTerminal,
		domain.ErrSessionBusy,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrUnknownSnapshot, http.StatusNotFound, CodeSnapshotNotFound),
		sentinelHandler(domain.ErrEmptyIndex, http.StatusUnprocessableEntity, CodeEmptyIndex),
		sentinelHandler(domain.ErrIndexBuildConflict, http.StatusConflict, CodeIndexBuildConflict),
		sentinelHandler(domain.ErrPinNotFound, http.StatusNotFound, CodePinNotFound),
		sentinelHandler(domain.ErrUnsupportedKind, http.StatusBadRequest, CodeUnsupportedKind),
		sentinelHandler(domain.ErrNoDocuments, http.StatusBadRequest, CodeNoDocuments),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrSessionTerminal, http.StatusConflict, CodeSessionConflict),
		sentinelHandler(domain.ErrSessionBusy, http.StatusConflict, CodeSessionConflict),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
