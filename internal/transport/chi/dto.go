package chi

// ErrorCode is the machine-readable error identifier of an error response.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeForbidden        ErrorCode = "forbidden"
	ErrorCodeUploadNotFound   ErrorCode = "upload_not_found"
	ErrorCodeModuleNotFound   ErrorCode = "module_not_found"
	ErrorCodeChatNotFound     ErrorCode = "chat_not_found"
	ErrorCodePayloadTooLarge  ErrorCode = "payload_too_large"
	ErrorCodeEmptyModule      ErrorCode = "empty_module"
	ErrorCodeExtraction       ErrorCode = "extraction_failed"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeGeneration       ErrorCode = "generation_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// UploadData is the JSON carried in the multipart "data" field of an upload.
type UploadData struct {
	ModuleName string `json:"moduleName"`
}

// UploadResponse is returned after a successful ingestion.
type UploadResponse struct {
	Message        string   `json:"message"`
	ModuleName     string   `json:"moduleName"`
	ChunkFilePaths []string `json:"chunkFilePaths"`
	Pages          int      `json:"pages"`
	Chunks         int      `json:"chunks"`
}

// QueryRequest asks a question about a module.
type QueryRequest struct {
	Question   string `json:"question"`
	ModuleName string `json:"moduleName"`
}

// QueryResponse carries the generated answer and its grounding chunk.
type QueryResponse struct {
	FinalResponse string      `json:"finalResponse"`
	Source        SourceChunk `json:"source"`
}

// SourceChunk locates the retrieved chunk.
type SourceChunk struct {
	Page  int     `json:"page"`
	Seq   int     `json:"seq"`
	Score float64 `json:"score"`
}

// ModuleListResponse lists module names.
type ModuleListResponse struct {
	Items []string `json:"items"`
}

// ChatMessage is the wire form of a chat history entry.
type ChatMessage struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ModuleName string `json:"moduleName"`
	ChatID     int    `json:"chatId"`
	Message    string `json:"message"`
	SentBy     string `json:"sentBy"`
	SentAt     int64  `json:"sentAt"`
}

// AddChatRequest creates a chat message.
type AddChatRequest struct {
	UserID     string `json:"userId"`
	ModuleName string `json:"moduleName"`
	ChatID     int    `json:"chatId"`
	Message    string `json:"message"`
	SentBy     string `json:"sentBy"`
}

// DeleteChatRequest selects the messages of one conversation.
type DeleteChatRequest struct {
	UserID     string `json:"userId"`
	ModuleName string `json:"moduleName"`
	ChatID     int    `json:"chatId"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
	Deleted *int   `json:"deleted,omitempty"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
