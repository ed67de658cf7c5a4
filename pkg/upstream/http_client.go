package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	createTimeout  = 30 * time.Second
	messageTimeout = 60 * time.Second
)

// HTTPClient speaks the gateway's REST dialect: JSON bodies for assistant
// and thread creation, form-encoded fields for message sends (,
// §6). It is the only Client implementation that talks to the gateway.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a transport pointed at baseURL. Every call carries
// a context deadline matching the fixed timeouts; the supplied
// http.Client's Timeout, if any, still applies, and the shorter limit wins.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type createAssistantRequest struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
}

type idResponse struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
	ID          string `json:"id"`
}

func (r idResponse) assistantID() string {
	if r.AssistantID != "" {
		return r.AssistantID
	}
	return r.ID
}

func (r idResponse) threadID() string {
	if r.ThreadID != "" {
		return r.ThreadID
	}
	return r.ID
}

// CreateAssistant posts {name, system_prompt} to /assistants.
func (c *HTTPClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	body, err := json.Marshal(createAssistantRequest{Name: name, SystemPrompt: systemPrompt})
	if err != nil {
		return "", err
	}

	var resp idResponse
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", body, &resp); err != nil {
		return "", err
	}
	return resp.assistantID(), nil
}

// CreateThread posts an explicit empty JSON body to
// /assistants/{id}/threads — the gateway rejects bodyless requests.
func (c *HTTPClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	var resp idResponse
	path := "/assistants/" + url.PathEscape(assistantID) + "/threads"
	if err := c.doJSON(ctx, http.MethodPost, path, []byte("{}"), &resp); err != nil {
		return "", err
	}
	return resp.threadID(), nil
}

type messageResponse struct {
	Content string `json:"content"`
	Text    string `json:"text"`
}

// SendMessage posts form-encoded fields to /threads/{id}/messages. Empty
// content fails locally without contacting the upstream.
func (c *HTTPClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}

	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("content", content)
	form.Set("stream", "false")
	form.Set("memory", "Auto")
	form.Set("model", model)
	form.Set("provider", provider)

	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	respBody, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &Error{Op: "send_message", Status: status, Body: string(respBody)}
	}

	var resp messageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", ErrMissingReply
	}
	if resp.Content != "" {
		return resp.Content, nil
	}
	if resp.Text != "" {
		return resp.Text, nil
	}
	return "", ErrMissingReply
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &Error{Op: path, Status: status, Body: string(respBody)}
	}
	return json.Unmarshal(respBody, out)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
