package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClientSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "k1", r.Header.Get("auth_key"))
		assert.True(t, r.URL.Query().Has("filter"))
		assert.Equal(t, "", r.URL.Query().Get("filter"))
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL + "/api/pets",
		Headers: map[string]string{"auth_key": "k1"},
		Query:   map[string]string{"filter": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode())
	assert.Equal(t, "short and stout", string(resp.Body()))
	assert.Equal(t, "yes", resp.Header("X-Reply"))
}

func TestRestyClientURLEncodedForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Мурзик", r.PostForm.Get("name"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(0).Do(context.Background(), Request{
		Method: "put",
		URL:    srv.URL,
		Form:   map[string]string{"name": "Мурзик"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestRestyClientMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pet-1", r.FormValue("pet_id"))

		f, hdr, err := r.FormFile("pet_photo")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpegbytes", string(data))
		assert.Equal(t, "cat.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   map[string]string{"pet_id": "pet-1"},
		Files: []File{{
			Field:       "pet_photo",
			Name:        "cat.jpg",
			ContentType: "image/jpeg",
			Reader:      strings.NewReader("jpegbytes"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRestyClient(time.Second).Do(context.Background(), Request{URL: url})
	assert.Error(t, err)

	_, err = NewRestyClient(time.Second).Do(context.Background(), Request{})
	assert.Error(t, err)
}
