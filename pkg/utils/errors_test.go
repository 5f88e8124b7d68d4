package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "None",
		},
		{
			name:     "fetch with timeout cause",
			err:      fmt.Errorf("%w: %w", ErrFetch, errors.New("dial tcp: i/o timeout")),
			expected: "Fetch_NetworkTimeout",
		},
		{
			name:     "fetch without cause",
			err:      ErrFetch,
			expected: "Fetch_Unavailable",
		},
		{
			name:     "http 404",
			err:      fmt.Errorf("%w: status 404 Not Found", ErrClientHTTPError),
			expected: "HTTP_404",
		},
		{
			name:     "http 429",
			err:      fmt.Errorf("%w: status 429 Too Many Requests", ErrClientHTTPError),
			expected: "HTTP_429",
		},
		{
			name:     "generic 4xx",
			err:      fmt.Errorf("%w: status 410 Gone", ErrClientHTTPError),
			expected: "HTTP_4xx",
		},
		{
			name:     "server error",
			err:      fmt.Errorf("%w: status 503", ErrServerHTTPError),
			expected: "HTTP_5xx",
		},
		{
			name:     "robots disallowed",
			err:      fmt.Errorf("detail fetch: %w", ErrRobotsDisallowed),
			expected: "Policy_Robots",
		},
		{
			name:     "html parse error",
			err:      fmt.Errorf("%w: bad HTML fragment", ErrParsing),
			expected: "Content_ParsingHTML",
		},
		{
			name:     "csv parse error",
			err:      fmt.Errorf("%w: CSV header mismatch", ErrParsing),
			expected: "Content_ParsingCSV",
		},
		{
			name:     "translation error",
			err:      fmt.Errorf("%w: quota exceeded", ErrTranslation),
			expected: "Translation_Failed",
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			expected: "System_ContextCanceled",
		},
		{
			name:     "context deadline",
			err:      context.DeadlineExceeded,
			expected: "System_ContextDeadlineExceeded",
		},
		{
			name:     "bare connection refused",
			err:      errors.New("dial tcp 127.0.0.1:80: connection refused"),
			expected: "Network_ConnectionRefused",
		},
		{
			name:     "unknown",
			err:      errors.New("something odd"),
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}
