package auth

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrBodyTooLarge is returned when a request body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// RequestContext is the view of an inbound request the authenticator needs.
type RequestContext interface {
	// Method returns the HTTP method.
	Method() string

	// Header returns a header value by case-insensitive name. "host" returns the request host.
	Header(name string) string

	// RawQuery returns the undecoded query string.
	RawQuery() string

	// Body returns the buffered body. It can be read any number of times after seeking to the start.
	Body() io.ReadSeeker
}

// HTTPRequest adapts an *http.Request to RequestContext.
type HTTPRequest struct {
	r    *http.Request
	body *bytes.Reader
}

var _ RequestContext = (*HTTPRequest)(nil)

// NewHTTPRequest buffers the body of r and replaces r.Body with a rewindable
// copy so downstream handlers can still read it. maxBytes <= 0 means no limit.
func NewHTTPRequest(r *http.Request, maxBytes int64) (*HTTPRequest, error) {
	data, err := bufferBody(r, maxBytes)
	if err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(data))

	return &HTTPRequest{r: r, body: bytes.NewReader(data)}, nil
}

func bufferBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	reader := io.Reader(r.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(r.Body, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrBodyTooLarge
	}

	return data, nil
}

// Method returns the HTTP method.
func (h *HTTPRequest) Method() string {
	return h.r.Method
}

// Header returns a header value.
func (h *HTTPRequest) Header(name string) string {
	if strings.EqualFold(name, HostHeader) {
		return h.r.Host
	}
	return h.r.Header.Get(name)
}

// RawQuery returns the undecoded query string.
func (h *HTTPRequest) RawQuery() string {
	return h.r.URL.RawQuery
}

// Body returns the buffered body.
func (h *HTTPRequest) Body() io.ReadSeeker {
	return h.body
}
