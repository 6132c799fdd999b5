// Package openai provides an index writer adapter using the OpenAI
// vector store API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// Ensure IndexWriter implements the interface.
var _ driven.IndexWriter = (*IndexWriter)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI index writer.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// VectorStoreID is the target vector store (required).
	VectorStoreID string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// IndexWriter uploads rendered content as vector store files. An artifact
// is one uploaded file attached to the configured vector store; the file
// ID is the artifact ID.
type IndexWriter struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	vectorStoreID string
}

// fileResponse is the OpenAI /files response format.
type fileResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// vectorStoreFileRequest is the vector store attach request format.
type vectorStoreFileRequest struct {
	FileID string `json:"file_id"`
}

// apiError is an OpenAI API failure carrying the HTTP status for
// transience classification.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("openai error (status %d): %s", e.StatusCode, e.Message)
}

// NewIndexWriter creates a new OpenAI vector store index writer.
func NewIndexWriter(cfg Config) (*IndexWriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.VectorStoreID == "" {
		return nil, fmt.Errorf("openai: vector store ID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &IndexWriter{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		vectorStoreID: cfg.VectorStoreID,
	}, nil
}

// Create uploads the content as a file and attaches it to the vector
// store. Returns once the attach call is acknowledged; index-side
// ingestion continues asynchronously.
func (w *IndexWriter) Create(ctx context.Context, content domain.RenderedContent) (string, error) {
	fileID, err := w.uploadFile(ctx, content)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	if err := w.attachFile(ctx, fileID); err != nil {
		return "", fmt.Errorf("attach file %s: %w", fileID, err)
	}

	return fileID, nil
}

// Delete detaches the file from the vector store and deletes it. An
// artifact that is already gone is success: a prior run may have
// completed part of the deletion before crashing.
func (w *IndexWriter) Delete(ctx context.Context, artifactID string) error {
	detachURL := fmt.Sprintf("%s/vector_stores/%s/files/%s", w.baseURL, w.vectorStoreID, artifactID)
	if err := w.doDelete(ctx, detachURL); err != nil {
		return fmt.Errorf("detach file %s: %w", artifactID, err)
	}

	if err := w.doDelete(ctx, w.baseURL+"/files/"+artifactID); err != nil {
		return fmt.Errorf("delete file %s: %w", artifactID, err)
	}

	return nil
}

// IsTransient classifies rate limiting, server errors and network
// failures as retryable.
func (w *IndexWriter) IsTransient(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

// uploadFile posts the content to /files as a multipart form.
func (w *IndexWriter) uploadFile(ctx context.Context, content domain.RenderedContent) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}
	part, err := form.CreateFormFile("file", content.Filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write([]byte(content.Text)); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	var fileResp fileResponse
	if err := w.do(req, &fileResp); err != nil {
		return "", err
	}
	if fileResp.ID == "" {
		return "", fmt.Errorf("openai: no file ID in response")
	}

	return fileResp.ID, nil
}

// attachFile adds an uploaded file to the vector store.
func (w *IndexWriter) attachFile(ctx context.Context, fileID string) error {
	jsonBody, err := json.Marshal(vectorStoreFileRequest{FileID: fileID})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/vector_stores/%s/files", w.baseURL, w.vectorStoreID),
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	return w.do(req, &fileResponse{})
}

// doDelete issues a DELETE, treating 404 as success.
func (w *IndexWriter) doDelete(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &apiError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return nil
}

// do sends a request and decodes the JSON response into out.
func (w *IndexWriter) do(req *http.Request, out *fileResponse) error {
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if out.Error != nil {
			message = out.Error.Message
		}
		return &apiError{StatusCode: resp.StatusCode, Message: message}
	}
	if out.Error != nil {
		return fmt.Errorf("openai error: %s", out.Error.Message)
	}

	return nil
}
