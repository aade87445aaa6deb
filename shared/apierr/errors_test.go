package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConfiguration, http.StatusInternalServerError},
		{KindNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindParse, http.StatusInternalServerError},
		{KindTransport, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestStatusCodeUsesKindNotMessage(t *testing.T) {
	// A message mentioning "not found" must not change the status of a parse failure.
	err := New(KindParse, "Invalid response format: field not found")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))

	wrapped := fmt.Errorf("stage failed: %w", New(KindNotFound, "Channel not found"))
	assert.Equal(t, http.StatusNotFound, StatusCode(wrapped))

	assert.Equal(t, http.StatusGatewayTimeout, StatusCode(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestTranslateUpstreamStatuses(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    Kind
		wantMessage string
		wantStatus  int
	}{
		{
			name:        "YouTube quota",
			err:         &googleapi.Error{Code: 403, Message: "quotaExceeded"},
			wantKind:    KindTransport,
			wantMessage: "YouTube API: API key is invalid or quota exceeded",
			wantStatus:  403,
		},
		{
			name:        "YouTube not found",
			err:         &googleapi.Error{Code: 404, Message: "channelNotFound"},
			wantKind:    KindNotFound,
			wantMessage: "YouTube API: Resource not found",
			wantStatus:  404,
		},
		{
			name:        "Gemini rate limit",
			err:         genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
			wantKind:    KindRateLimited,
			wantMessage: "YouTube API: Rate limit exceeded. Please try again later",
			wantStatus:  429,
		},
		{
			name:        "Generic status",
			err:         &StatusError{Code: 502, Message: "bad gateway"},
			wantKind:    KindTransport,
			wantMessage: "YouTube API: bad gateway (Status: 502)",
			wantStatus:  502,
		},
		{
			name:        "Generic status without message",
			err:         &StatusError{Code: 500},
			wantKind:    KindTransport,
			wantMessage: "YouTube API: Internal Server Error (Status: 500)",
			wantStatus:  500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := Translate(tt.err, "YouTube API")

			var e *Error
			require.True(t, errors.As(translated, &e))
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantMessage, e.Error())
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, tt.err, e.Err)
		})
	}
}

func TestTranslateTransportFailures(t *testing.T) {
	t.Run("Deadline", func(t *testing.T) {
		err := Translate(fmt.Errorf("call: %w", context.DeadlineExceeded), "NewsAPI")
		assert.True(t, Is(err, KindTimeout))
		assert.Equal(t, "NewsAPI: Request timeout. Please try again", err.Error())
	})

	t.Run("No response", func(t *testing.T) {
		urlErr := &url.Error{Op: "Get", URL: "https://example.invalid", Err: errors.New("dial tcp: no such host")}
		err := Translate(urlErr, "Reddit")
		assert.True(t, Is(err, KindTransport))
		assert.Equal(t, "Reddit: No response received. Check your internet connection", err.Error())
	})

	t.Run("Plain error", func(t *testing.T) {
		err := Translate(errors.New("something odd"), "Reddit")
		assert.Equal(t, "Reddit: something odd", err.Error())
	})

	t.Run("Tagged error passes through", func(t *testing.T) {
		original := New(KindNotFound, "No videos found for this channel")
		assert.Same(t, original, Translate(original, "YouTube API"))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, Translate(nil, "YouTube API"))
	})
}

func TestErrorCarriesConfigurationPayload(t *testing.T) {
	err := &Error{Kind: KindConfiguration, Message: "API keys not configured", Missing: []string{"YOUTUBE_API_KEY"}}
	assert.Equal(t, "API keys not configured", err.Error())
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.True(t, Is(err, KindConfiguration))
	assert.False(t, Is(nil, KindConfiguration))
}
