package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/binder"
)

type payload struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"count"`
}

func jsonRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON()(jsonRequest(`{"session_id":"s1","count":2,"extra":true}`, "application/json; charset=utf-8"), &p)
		require.NoError(t, err)
		assert.Equal(t, payload{SessionID: "s1", Count: 2}, p)
	})

	t.Run("rejects missing content type", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON()(jsonRequest(`{}`, ""), &p)
		assert.ErrorIs(t, err, binder.ErrMissingContentType)
	})

	t.Run("rejects other media types unless allowed", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON()(jsonRequest(`{"session_id":"s1"}`, "text/plain"), &p)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)

		err = binder.JSON(binder.WithMediaTypes("text/plain"))(jsonRequest(`{"session_id":"s1"}`, "text/plain;charset=UTF-8"), &p)
		require.NoError(t, err)
		assert.Equal(t, "s1", p.SessionID)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()
		var p payload
		body := `{"session_id":"` + strings.Repeat("a", 64) + `"}`
		err := binder.JSON(binder.WithMaxBytes(16))(jsonRequest(body, "application/json"), &p)
		assert.ErrorIs(t, err, binder.ErrRequestTooLarge)
	})

	t.Run("rejects malformed and empty bodies", func(t *testing.T) {
		t.Parallel()
		var p payload
		assert.ErrorIs(t, binder.JSON()(jsonRequest(`{"session_id":`, "application/json"), &p), binder.ErrFailedToParseJSON)
		assert.ErrorIs(t, binder.JSON()(jsonRequest(``, "application/json"), &p), binder.ErrFailedToParseJSON)
		assert.ErrorIs(t, binder.JSON()(jsonRequest(`{"count":"x"}`, "application/json"), &p), binder.ErrFailedToParseJSON)
	})
}

type listRequest struct {
	Page      int      `query:"page"`
	Limit     int      `query:"limit"`
	SessionID string   `query:"session_id"`
	Sampled   *bool    `query:"sampled"`
	Tags      []string `query:"tags"`
	Ignored   string   `query:"-"`
	ID        string   `path:"id"`
}

func TestQuery(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?page=3&session_id=s1&sampled=yes&tags=a,b&tags=c&Ignored=x", nil)
	req := listRequest{Limit: 50}
	require.NoError(t, binder.Query()(r, &req))

	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 50, req.Limit, "absent parameter keeps preset value")
	assert.Equal(t, "s1", req.SessionID)
	require.NotNil(t, req.Sampled)
	assert.True(t, *req.Sampled)
	assert.Equal(t, []string{"a", "b", "c"}, req.Tags)
	assert.Empty(t, req.Ignored)

	bad := httptest.NewRequest(http.MethodGet, "/?page=abc", nil)
	assert.ErrorIs(t, binder.Query()(bad, &req), binder.ErrFailedToParseQuery)

	var notStruct int
	assert.ErrorIs(t, binder.Query()(r, &notStruct), binder.ErrFailedToParseQuery)
	assert.ErrorIs(t, binder.Query()(r, req), binder.ErrFailedToParseQuery)
}

func TestPath(t *testing.T) {
	t.Parallel()

	extract := func(_ *http.Request, name string) string {
		if name == "id" {
			return "rec-1"
		}
		return ""
	}
	var req listRequest
	require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, "rec-1", req.ID)

	assert.ErrorIs(t, binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &req), binder.ErrFailedToParsePath)
}
