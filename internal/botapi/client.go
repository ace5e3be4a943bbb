package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// pollTimeout is the server-side long-poll timeout requested on GetUpdates.
const pollTimeout = 30 * time.Second

// Client is an HTTP client for the platform's bot API. The access token is
// passed as a query parameter on every call.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the given API base URL and bot access token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			// Must comfortably exceed the long-poll timeout.
			Timeout: pollTimeout + 30*time.Second,
		},
	}
}

// GetUpdates long-polls for new updates. A nil marker requests updates from
// the beginning; otherwise only updates after the marker are returned. The
// call blocks server-side until updates exist or the poll timeout elapses.
func (c *Client) GetUpdates(ctx context.Context, marker *int64) (*UpdateList, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	if marker != nil {
		q.Set("marker", strconv.FormatInt(*marker, 10))
	}
	var list UpdateList
	if err := c.call(ctx, http.MethodGet, "/updates", q, nil, &list); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return &list, nil
}

// GetChat fetches chat info, including its icon and dialog partner.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	var chat Chat
	path := "/chats/" + strconv.FormatInt(chatID, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &chat); err != nil {
		return nil, fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return &chat, nil
}

// SendMessage sends a message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, body *NewMessageBody) error {
	q := url.Values{}
	q.Set("chat_id", strconv.FormatInt(chatID, 10))
	if err := c.call(ctx, http.MethodPost, "/messages", q, body, nil); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// GetUploadURL requests a one-shot endpoint for uploading a file of the given
// kind.
func (c *Client) GetUploadURL(ctx context.Context, kind UploadType) (*UploadEndpoint, error) {
	q := url.Values{}
	q.Set("type", string(kind))
	var endpoint UploadEndpoint
	if err := c.call(ctx, http.MethodPost, "/uploads", q, nil, &endpoint); err != nil {
		return nil, fmt.Errorf("get upload url: %w", err)
	}
	return &endpoint, nil
}

// UploadImage POSTs the file at path to the upload endpoint as multipart form
// data and returns the resulting photo tokens.
func (c *Client) UploadImage(ctx context.Context, uploadURL, path string) (*PhotoTokens, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	var tokens PhotoTokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &tokens, nil
}

// call performs one API request. Non-2xx responses are decoded into *APIError.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", c.token)

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, tolerating bodies
// that are not the platform's error JSON.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err == nil && len(data) > 0 {
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Message = string(data)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
