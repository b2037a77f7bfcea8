// Package chi exposes the docqa use cases over HTTP with the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/principal"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/docqa/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	modulesuc "github.com/kailas-cloud/docqa/internal/usecase/modules"
)

// uploadMessage is returned after a successful ingestion.
const uploadMessage = "File uploaded successfully"

// Services groups the use cases served over HTTP.
type Services struct {
	Ingest  *ingestuc.Service
	Answer  *answeruc.Service
	Modules *modulesuc.Service
	Chats   *chatuc.Service
	Health  *healthuc.Service
}

// UploadLimits bounds multipart uploads.
type UploadLimits struct {
	MaxBytes int64
	MaxFiles int
	// TempDir receives uploaded bytes before ingestion; empty means os.TempDir().
	TempDir string
}

// Server implements ServerInterface.
type Server struct {
	ingest        *ingestuc.Service
	answer        *answeruc.Service
	modules       *modulesuc.Service
	chats         *chatuc.Service
	health        *healthuc.Service
	limits        UploadLimits
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(svc Services, limits UploadLimits, logger *zap.Logger) *Server {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = 32 << 20
	}
	return &Server{
		ingest:        svc.Ingest,
		answer:        svc.Answer,
		modules:       svc.Modules,
		chats:         svc.Chats,
		health:        svc.Health,
		limits:        limits,
		metrics:       promhttp.Handler(),
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// UploadDocument handles POST /ai/upload.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := s.readUpload(w, r)
	defer cleanup()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.ingest.Ingest(r.Context(), upload)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	paths := res.ChunkFilePaths
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:        uploadMessage,
		ModuleName:     res.ModuleName,
		ChunkFilePaths: paths,
		Pages:          res.Pages,
		Chunks:         res.Chunks,
	})
}

// QueryModule handles POST /ai/query.
func (s *Server) QueryModule(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuery(w, r, s.limits.MaxBytes)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.answer.Answer(ctx, req.ModuleName, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setUsageHeaders(w, usage)

	writeJSON(w, http.StatusOK, QueryResponse{
		FinalResponse: ans.Text,
		Source: SourceChunk{
			Page:  ans.Source.Page(),
			Seq:   ans.Source.Seq(),
			Score: ans.Score,
		},
	})
}

// ListModules handles GET /ai/modules.
func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	names, err := s.modules.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ModuleListResponse{Items: names})
}

// DeleteModule handles DELETE /ai/modules/{module}. Admin only.
func (s *Server) DeleteModule(w http.ResponseWriter, r *http.Request, module string) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !p.IsAdmin() {
		s.handleDomainError(w, r, domain.ErrForbidden)
		return
	}
	if err := s.modules.Delete(r.Context(), module); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListChats handles GET /chats/all.
func (s *Server) ListChats(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	msgs, err := s.chats.All(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatsToWire(msgs))
}

// FindChat handles GET /chats/find/{id}.
func (s *Server) FindChat(w http.ResponseWriter, r *http.Request, id string) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	m, err := s.chats.Find(r.Context(), p, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToWire(&m))
}

// ListUserChats handles GET /chats/users/{userId}.
func (s *Server) ListUserChats(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	msgs, err := s.chats.ByUser(r.Context(), p, userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatsToWire(msgs))
}

// LastUserChat handles GET /chats/last/{userId}.
func (s *Server) LastUserChat(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	m, err := s.chats.Last(r.Context(), p, userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToWire(&m))
}

// AddChat handles POST /chats/add.
func (s *Server) AddChat(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	var req AddChatRequest
	if err := decodeBody(w, r, s.limits.MaxBytes, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	m, err := s.chats.Add(r.Context(), p, chatuc.AddInput{
		UserID:     req.UserID,
		ModuleName: req.ModuleName,
		ChatID:     req.ChatID,
		Message:    req.Message,
		SentBy:     req.SentBy,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatToWire(&m))
}

// DeleteChat handles DELETE /chats/delete.
func (s *Server) DeleteChat(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	var req DeleteChatRequest
	if err := decodeBody(w, r, s.limits.MaxBytes, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.chats.Delete(r.Context(), p, chatuc.Conversation{
		UserID:     req.UserID,
		ModuleName: req.ModuleName,
		ChatID:     req.ChatID,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	msg := "No chat found with this id"
	if n > 0 {
		msg = fmt.Sprintf("Chat deleted including %d messages", n)
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg, Deleted: &n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

// log returns the request-scoped logger, falling back to the server logger.
func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContext(r.Context(), s.logger)
}

func requirePrincipal(r *http.Request) (principal.Principal, error) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		return principal.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// decodeQuery accepts a JSON body or a form/multipart "data" field holding the same JSON.
func decodeQuery(w http.ResponseWriter, r *http.Request, maxBytes int64) (QueryRequest, error) {
	var req QueryRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") || strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, formError(err)
		}
		data := r.FormValue("data")
		if data == "" {
			return req, fmt.Errorf("%w: data field is required", domain.ErrValidation)
		}
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return req, fmt.Errorf("%w: invalid data field: %w", domain.ErrValidation, err)
		}
		return req, nil
	}
	if err := decodeBody(w, r, maxBytes, &req); err != nil {
		return req, err
	}
	return req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge
		}
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	return nil
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
	}
}

func chatToWire(m *domchat.Message) ChatMessage {
	return ChatMessage{
		ID:         m.ID(),
		UserID:     m.UserID(),
		ModuleName: m.ModuleName(),
		ChatID:     m.ChatID(),
		Message:    m.Text(),
		SentBy:     m.SentBy(),
		SentAt:     m.SentAt(),
	}
}

func chatsToWire(msgs []domchat.Message) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i := range msgs {
		out[i] = chatToWire(&msgs[i])
	}
	return out
}
