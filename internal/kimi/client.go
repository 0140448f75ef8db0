// Package kimi is a client for the Kimi vision chat API: pre-signed
// image upload, file registration, and streamed chat completions.
package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the Kimi web API. The token func is consulted per
// request so runtime key changes take effect without a restart.
type Client struct {
	baseURL   string
	token     func() string
	client    *http.Client
	streaming *http.Client
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, token func() string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		// No client timeout on the streaming call: an analysis stream
		// legitimately stays open for minutes. Cancellation comes from
		// the request context.
		streaming: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token := c.token()
	if token == "" {
		return nil, fmt.Errorf("kimi API key not set")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received non-2xx status code: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// CreateChat opens a new chat session and returns its id.
func (c *Client) CreateChat(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, "POST", "/api/chat", createChatRequest{
		Name:        "snapvocab",
		IsExample:   false,
		EnterMethod: "new_chat",
		KimiplusID:  "kimi",
	})
	if err != nil {
		return "", err
	}

	var response struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &response); err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("chat creation returned an empty id")
	}
	return response.ID, nil
}

// PreSignURL requests an upload target for an image file name.
func (c *Client) PreSignURL(ctx context.Context, fileName string) (PreSignedURL, error) {
	req, err := c.newRequest(ctx, "POST", "/api/pre-sign-url", map[string]string{
		"action": "image",
		"name":   fileName,
	})
	if err != nil {
		return PreSignedURL{}, err
	}

	var presigned PreSignedURL
	if err := c.doJSON(req, &presigned); err != nil {
		return PreSignedURL{}, fmt.Errorf("failed to get pre-signed URL: %w", err)
	}
	return presigned, nil
}

// Upload PUTs the raw image bytes to a pre-signed URL. Any status
// outside 200-299 is an upload failure.
func (c *Client) Upload(ctx context.Context, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("image upload returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// RegisterFile reports the uploaded file's metadata and returns the
// service's file descriptor.
func (c *Client) RegisterFile(ctx context.Context, fileID, fileName string, width, height int) (FileDetail, error) {
	req, err := c.newRequest(ctx, "POST", "/api/file", fileRegisterRequest{
		Type:   "image",
		Name:   fileName,
		FileID: fileID,
		Meta: FileMeta{
			Width:  fmt.Sprintf("%d", width),
			Height: fmt.Sprintf("%d", height),
		},
	})
	if err != nil {
		return FileDetail{}, err
	}

	var detail FileDetail
	if err := c.doJSON(req, &detail); err != nil {
		return FileDetail{}, fmt.Errorf("failed to register file: %w", err)
	}
	return detail, nil
}

// Completion submits a streamed chat completion referencing uploaded
// files and returns the event stream. The caller owns the stream and
// must Close it.
func (c *Client) Completion(ctx context.Context, chatID, prompt string, refs []FileRef) (*EventStream, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}

	req, err := c.newRequest(ctx, "POST", "/api/chat/"+chatID+"/completion/stream", completionRequest{
		Messages:   []Message{{Role: "user", Content: prompt}},
		UseSearch:  true,
		Extend:     extend{Sidebar: true},
		KimiplusID: "kimi",
		Refs:       ids,
		RefsFile:   refs,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to start completion stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("completion stream returned status %d: %s", resp.StatusCode, string(body))
	}

	return newEventStream(resp.Body), nil
}
