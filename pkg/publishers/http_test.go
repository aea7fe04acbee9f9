package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPPublisher(t *testing.T, cfg HTTPPublisherConfig) Publisher {
	t.Helper()
	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP, HTTP: &cfg}, nil)
	require.NoError(t, err)
	return pub
}

func TestHTTPPublisherPostsEventJSON(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "1", r.Header.Get("X-Test"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var evt Event
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&evt))
		received <- evt
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pub := newTestHTTPPublisher(t, HTTPPublisherConfig{
		URL:     srv.URL,
		Method:  "put",
		Headers: map[string]string{"X-Test": "1", " ": "dropped"},
	})
	assert.Equal(t, "hook", pub.ID())
	assert.Equal(t, TypeHTTP, pub.Type())

	require.NoError(t, pub.Publish(context.Background(), Event{RunID: "r1", Scenario: "api-key-valid-user", Passed: true}))
	evt := <-received
	assert.Equal(t, "api-key-valid-user", evt.Scenario)
	assert.True(t, evt.Passed)
}

func TestHTTPPublisherErrorStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", status)
		}))

		pub := newTestHTTPPublisher(t, HTTPPublisherConfig{URL: srv.URL, TimeoutSeconds: 1})
		err := pub.Publish(context.Background(), Event{})
		require.Error(t, err, "status %d", status)
		assert.Contains(t, err.Error(), "nope")
		srv.Close()
	}
}

func TestNewHTTPPublisherRequiresBlock(t *testing.T) {
	_, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP}, nil)
	assert.Error(t, err)
}
