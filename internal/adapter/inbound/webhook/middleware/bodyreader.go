package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps interaction bodies; real payloads are a few KB.
const DefaultMaxBodyBytes = 1 << 20

// rawBodyKey stores the buffered request body in the request context.
type rawBodyKey struct{}

// BodyReader reads and buffers the request body once so it can be verified
// byte-for-byte and then parsed. The raw bytes are stored in the request
// context; oversized bodies are left unbuffered and fail in RawBody.
func BodyReader(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := readLimited(r.Body, maxBytes)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rawBodyKey{}, bodyResult{err: err})))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			ctx := context.WithValue(r.Context(), rawBodyKey{}, bodyResult{body: body})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type bodyResult struct {
	body []byte
	err  error
}

// RawBody returns the body buffered by BodyReader, or reads it directly when
// the middleware is not installed.
func RawBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if res, ok := r.Context().Value(rawBodyKey{}).(bodyResult); ok {
		return res.body, res.err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return readLimited(r.Body, maxBytes)
}

func readLimited(body io.ReadCloser, maxBytes int64) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBytes)
	}
	return data, nil
}
