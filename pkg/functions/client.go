// Package functions invokes the memory functions deployed next to the vector
// store over HTTP.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eq-coach-be/internal/dto"
)

var ErrNotConfigured = errors.New("functions base url is not configured")

// RemoteError is a function that answered with an {"error": ...} body.
type RemoteError struct {
	Function   string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("function %s failed (status %d): %s", e.Function, e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Invoke posts body to {BaseURL}/{name} and decodes the data field into out.
// out may be nil when the caller only cares about success.
func (c *Client) Invoke(ctx context.Context, name string, body interface{}, out interface{}) error {
	if c.BaseURL == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+name, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("function %s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	var envelope dto.FunctionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &RemoteError{Function: name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode %s response: %w", name, err)
	}

	if envelope.Error != "" || resp.StatusCode != http.StatusOK {
		message := envelope.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{Function: name, StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", name, err)
	}
	return nil
}
