package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

var errPayloadTooLarge = errors.New("request body too large")

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers is the ordered error table; first match wins.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(errPayloadTooLarge, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, false),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed, true),
		sentinelHandler(domain.ErrUploadArtifactMissing, http.StatusNotFound, ErrorCodeUploadNotFound, true),
		sentinelHandler(domain.ErrModuleNotFound, http.StatusNotFound, ErrorCodeModuleNotFound, true),
		sentinelHandler(domain.ErrChatNotFound, http.StatusNotFound, ErrorCodeChatNotFound, true),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorCodeForbidden, false),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, ErrorCodeUnauthorized, false),
		sentinelHandler(domain.ErrEmptyModule, http.StatusUnprocessableEntity, ErrorCodeEmptyModule, true),
		extractionHandler,
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited, false),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, ErrorCodeGeneration, false),
	}
}

// sentinelHandler maps a sentinel to a status. Client-caused errors expose the
// full message; the rest expose only the sentinel text.
func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func extractionHandler(w http.ResponseWriter, err error) bool {
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, ErrorCodeExtraction,
		"could not read "+extErr.Kind+" document")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log(r)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// ParamErrorHandler answers path parameter binding failures.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var perr *InvalidParamFormatError
	if errors.As(err, &perr) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid path parameter "+perr.ParamName)
		return
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request")
}
