package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(key string) string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Request describes a single outbound call. Files switch the body to multipart
// encoding; otherwise non-empty Form is sent urlencoded.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Form    map[string]string
	Files   []File
}

// File is one multipart file part.
type File struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}
