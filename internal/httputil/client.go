// Package httputil provides a hardened HTTP client and input sanitization
// utilities shared by the fetch pipeline.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// NewClient creates a hardened HTTP client with secure defaults. No overall
// timeout is set because video downloads legitimately run for minutes; callers
// bound requests with a context instead.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConnsPerHost:   5,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

// NewRequest builds a request with the given extra headers applied.
func NewRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Request, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
