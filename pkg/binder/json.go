package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
)

// DefaultMaxJSONSize caps JSON request bodies at 1MB.
const DefaultMaxJSONSize int64 = 1 << 20

type jsonConfig struct {
	maxBytes   int64
	mediaTypes []string
}

// JSONOption configures the JSON binder.
type JSONOption func(*jsonConfig)

// WithMaxBytes overrides DefaultMaxJSONSize.
func WithMaxBytes(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithMediaTypes adds media types accepted besides application/json.
// Browser beacons sent from a plain string arrive as text/plain.
func WithMediaTypes(types ...string) JSONOption {
	return func(c *jsonConfig) { c.mediaTypes = append(c.mediaTypes, types...) }
}

// JSON returns a binder decoding the request body into v. Unknown fields are
// ignored so older and newer clients can share an endpoint.
func JSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{
		maxBytes:   DefaultMaxJSONSize,
		mediaTypes: []string{"application/json"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !slices.Contains(cfg.mediaTypes, mediaType) {
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxBytes+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %w", ErrFailedToParseJSON, err)
		}
		if int64(len(body)) > cfg.maxBytes {
			return fmt.Errorf("%w: max %d bytes", ErrRequestTooLarge, cfg.maxBytes)
		}
		if len(body) == 0 {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		if err := json.Unmarshal(body, v); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("%w: invalid JSON at offset %d", ErrFailedToParseJSON, syntaxErr.Offset)
			}
			return fmt.Errorf("%w: %w", ErrFailedToParseJSON, err)
		}
		return nil
	}
}
