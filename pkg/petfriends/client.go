// Package petfriends is a client for the PetFriends REST API.
//
// Every operation issues exactly one request and returns a Result holding
// the status code and the response body, whatever the status. Only local
// precondition failures (an unreadable photo) and transport failures are
// returned as errors.
package petfriends

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/petfriends-harness/pkg/httpclient"
)

// DefaultBaseURL is the public PetFriends deployment.
const DefaultBaseURL = "https://petfriends.skillfactory.ru/"

const (
	headerAuthKey  = "auth_key"
	headerEmail    = "email"
	headerPassword = "password"

	photoField = "pet_photo"
)

// Options configures a Client. All fields are optional.
type Options struct {
	BaseURL    string
	HTTPClient httpclient.Client
	// Timeout applies only when HTTPClient is nil; zero keeps transport defaults.
	Timeout time.Duration
	Logger  Logger
}

// Client issues PetFriends API calls. It holds no session state; the auth key
// is passed by the caller on every authenticated call.
type Client struct {
	baseURL *url.URL
	http    httpclient.Client
	log     Logger
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpclient.NewRestyClient(opts.Timeout)
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	return &Client{baseURL: base, http: hc, log: log}, nil
}

// BaseURL returns the root every endpoint is resolved against.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// GetAPIKey exchanges credentials for an auth key.
func (c *Client) GetAPIKey(ctx context.Context, email, password string) (Result, error) {
	return c.do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.endpoint("api/key"),
		Headers: map[string]string{
			headerEmail:    email,
			headerPassword: password,
		},
	})
}

// ListPets lists all pets, or only the caller's with FilterMyPets.
func (c *Client) ListPets(ctx context.Context, key AuthKey, filter Filter) (Result, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     c.endpoint("api/pets"),
		Headers: authHeaders(key),
		Query:   map[string]string{"filter": string(filter)},
	})
}

// AddNewPet creates a pet with a photo. The photo is opened before anything
// is sent; a missing or unreadable file yields a *PhotoError.
func (c *Client) AddNewPet(ctx context.Context, key AuthKey, pet PetForm, photoPath string) (Result, error) {
	photo, err := openPhoto(photoPath)
	if err != nil {
		return Result{}, err
	}
	defer photo.Close()

	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint("api/pets"),
		Headers: authHeaders(key),
		Form:    pet.values(),
		Files:   []httpclient.File{photoPart(photoPath, photo)},
	})
}

// DeletePet deletes a pet by id.
func (c *Client) DeletePet(ctx context.Context, key AuthKey, petID string) (Result, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodDelete,
		URL:     c.endpoint("api/pets/" + url.PathEscape(petID)),
		Headers: authHeaders(key),
	})
}

// UpdatePetInfo replaces the name, type and age of a pet.
func (c *Client) UpdatePetInfo(ctx context.Context, key AuthKey, petID string, pet PetForm) (Result, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPut,
		URL:     c.endpoint("api/pets/" + url.PathEscape(petID)),
		Headers: authHeaders(key),
		Form:    pet.values(),
	})
}

// CreatePetSimple creates a pet without a photo.
func (c *Client) CreatePetSimple(ctx context.Context, key AuthKey, pet PetForm) (Result, error) {
	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint("api/create_pet_simple"),
		Headers: authHeaders(key),
		Form:    pet.values(),
	})
}

// SetPhotoPet uploads a photo for an existing pet. Same photo contract as AddNewPet.
func (c *Client) SetPhotoPet(ctx context.Context, key AuthKey, petID, photoPath string) (Result, error) {
	photo, err := openPhoto(photoPath)
	if err != nil {
		return Result{}, err
	}
	defer photo.Close()

	return c.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint("api/pets/set_photo/" + url.PathEscape(petID)),
		Headers: authHeaders(key),
		Form:    map[string]string{"pet_id": petID},
		Files:   []httpclient.File{photoPart(photoPath, photo)},
	})
}

func (c *Client) do(ctx context.Context, req httpclient.Request) (Result, error) {
	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("petfriends request failed", "petfriends_error", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return Result{}, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	res := Result{Status: resp.StatusCode(), Body: ParseBody(resp.Body())}
	c.log.DebugObj("petfriends request completed", "petfriends_request", map[string]any{
		"method":       req.Method,
		"url":          req.URL,
		"status":       res.Status,
		"body_kind":    res.Body.Kind().String(),
		"content_type": resp.Header("Content-Type"),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return res, nil
}

// endpoint resolves an already-escaped relative path against the base URL.
func (c *Client) endpoint(rel string) string {
	ref, err := url.Parse(rel)
	if err != nil {
		return c.baseURL.String() + rel
	}
	return c.baseURL.ResolveReference(ref).String()
}

func authHeaders(key AuthKey) map[string]string {
	return map[string]string{headerAuthKey: key.Key}
}

func photoPart(path string, r io.Reader) httpclient.File {
	name := filepath.Base(path)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return httpclient.File{
		Field:       photoField,
		Name:        name,
		ContentType: contentType,
		Reader:      r,
	}
}
