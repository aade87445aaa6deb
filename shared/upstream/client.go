// Package upstream holds the HTTP plumbing shared by the plain JSON and feed clients.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idea-stack/shared/apierr"
)

const DefaultUserAgent = "idea-stack/1.0"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client with a fixed timeout that stamps every request with userAgent.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
		},
	}
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
// Non-2xx responses are returned as *apierr.StatusError.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apierr.StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a message out of the common {"message": ...} / {"error": {"message": ...}} shapes.
func errorMessage(body []byte) string {
	var shaped struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if shaped.Message != "" {
			return shaped.Message
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(shaped.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if json.Unmarshal(shaped.Error, &plain) == nil && plain != "" {
			return plain
		}
	}
	return strings.TrimSpace(string(body))
}

// TopicQuery joins the first n non-empty topics into a single OR search query.
func TopicQuery(topics []string, n int) string {
	terms := make([]string, 0, n)
	for _, topic := range topics {
		if len(terms) == n {
			break
		}
		if topic = strings.TrimSpace(topic); topic != "" {
			terms = append(terms, topic)
		}
	}
	return strings.Join(terms, " OR ")
}
