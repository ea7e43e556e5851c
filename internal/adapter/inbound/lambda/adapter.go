// Package lambda runs the interaction handler inside AWS Lambda behind an
// API Gateway HTTP API or a function URL.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jonny/instance-bot/pkg/apierror"
)

// Adapter converts API Gateway v2 HTTP events into http.Requests for an
// ordinary http.Handler and collects the response.
type Adapter struct {
	handler http.Handler
	logger  *slog.Logger
}

func NewAdapter(handler http.Handler, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{handler: handler, logger: logger}
}

// Handle is the Lambda entry point. Handler failures, including bodies that
// cannot be decoded, are carried in the response status; the returned error
// is always nil.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := toRequest(ctx, event)
	if err != nil {
		// Nothing reached the handler, so nothing was verified.
		a.logger.Error("converting lambda event", "requestID", event.RequestContext.RequestID, "error", err)
		rw := newResponseBuffer()
		apierror.Write(rw, apierror.Unauthorized())
		return rw.toEvent(), nil
	}

	rw := newResponseBuffer()
	a.handler.ServeHTTP(rw, req)
	return rw.toEvent(), nil
}

func toRequest(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	var body io.Reader = strings.NewReader(event.Body)
	size := int64(len(event.Body))
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			// Surfaces as a body read error, which the handler rejects
			// like any other unverifiable request.
			body = errReader{fmt.Errorf("decoding base64 body: %w", err)}
			size = -1
		} else {
			body = bytes.NewReader(decoded)
			size = int64(len(decoded))
		}
	}

	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodPost
	}
	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}
	target := path
	if event.RawQueryString != "" {
		target += "?" + event.RawQueryString
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	req.ContentLength = size
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	} else if event.RequestContext.DomainName != "" {
		req.Host = event.RequestContext.DomainName
	}
	if ip := event.RequestContext.HTTP.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":0"
	}
	// The gateway's id replaces whatever the client sent.
	if event.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestContext.RequestID)
	}
	return req, nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// responseBuffer is a minimal http.ResponseWriter that keeps everything in
// memory until the handler returns.
type responseBuffer struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}, status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.status = code
	b.wroteHeader = true
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}

func (b *responseBuffer) toEvent() events.APIGatewayV2HTTPResponse {
	headers := make(map[string]string, len(b.header))
	var cookies []string
	for k, vals := range b.header {
		if len(vals) == 0 {
			continue
		}
		if k == "Set-Cookie" {
			cookies = append(cookies, vals...)
			continue
		}
		headers[k] = strings.Join(vals, ",")
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: b.status,
		Headers:    headers,
		Body:       b.body.String(),
		Cookies:    cookies,
	}
}
