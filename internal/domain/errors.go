package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every client input error.
	ErrValidation = errors.New("validation failed")

	// ErrNoFileUploaded signals an upload request without files.
	ErrNoFileUploaded = fmt.Errorf("no file uploaded: %w", ErrValidation)
	// ErrUnsupportedFileType signals an extension other than pdf or docx.
	ErrUnsupportedFileType = fmt.Errorf("unsupported file type: %w", ErrValidation)
	// ErrInvalidModuleName signals a module name that is not a safe path component.
	ErrInvalidModuleName = fmt.Errorf("invalid module name: %w", ErrValidation)
	// ErrInvalidSplitParams signals maxSize <= overlap or a negative overlap.
	ErrInvalidSplitParams = fmt.Errorf("invalid split parameters: %w", ErrValidation)

	// ErrUploadArtifactMissing signals that the uploaded temp file cannot be found.
	ErrUploadArtifactMissing = errors.New("uploaded file not found")
	// ErrModuleNotFound signals a module without a chunk directory.
	ErrModuleNotFound = errors.New("module not found")
	// ErrEmptyModule signals a module directory holding zero chunks.
	ErrEmptyModule = errors.New("module has no chunks")
	// ErrChatNotFound signals a missing chat message.
	ErrChatNotFound = errors.New("chat not found")

	// ErrGenerationFailed signals an embedding or generation provider failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = fmt.Errorf("embedding provider error: %w", ErrGenerationFailed)
	// ErrCompletionProviderError signals a chat completion provider failure.
	ErrCompletionProviderError = fmt.Errorf("completion provider error: %w", ErrGenerationFailed)
	// ErrRateLimited signals a local rate limit hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized signals a missing or unknown credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a principal acting on another user's data.
	ErrForbidden = errors.New("this user does not have access to perform this operation")
)

// ExtractionError wraps a format extractor failure with the file kind.
type ExtractionError struct {
	Kind string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s text: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
