package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, incoming string) (ctxID, headerID string) {
		t.Helper()
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = requestid.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set(requestid.Header, incoming)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return ctxID, rec.Header().Get(requestid.Header)
	}

	t.Run("generates id when missing", func(t *testing.T) {
		t.Parallel()
		ctxID, headerID := run(t, "")
		assert.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, headerID)
	})

	t.Run("keeps valid incoming id", func(t *testing.T) {
		t.Parallel()
		ctxID, headerID := run(t, "beacon-123_abc")
		assert.Equal(t, "beacon-123_abc", ctxID)
		assert.Equal(t, "beacon-123_abc", headerID)
	})

	for _, bad := range []string{"a b", "<script>", "x/y", strings.Repeat("a", 129)} {
		t.Run("replaces invalid id", func(t *testing.T) {
			t.Parallel()
			ctxID, headerID := run(t, bad)
			assert.NotEqual(t, bad, ctxID)
			assert.Equal(t, ctxID, headerID)
		})
	}
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()
	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(requestid.WithContext(context.Background(), "abc"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())
}
