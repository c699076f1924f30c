package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipString(t *testing.T, input string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	_, err := gzipWriter.Write([]byte(input))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())
	return buf.Bytes()
}

func TestUngzipJSONRequest(t *testing.T) {
	echo := UngzipJSONRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	}))

	t.Run("gzipped body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/user", bytes.NewReader(gzipString(t, `{"name":"Alex"}`)))
		request.Header.Set("Content-Encoding", "gzip")
		w := httptest.NewRecorder()
		echo.ServeHTTP(w, request)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"name":"Alex"}`, w.Body.String())
	})

	t.Run("plain body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(`{"name":"Alex"}`))
		w := httptest.NewRecorder()
		echo.ServeHTTP(w, request)

		assert.Equal(t, `{"name":"Alex"}`, w.Body.String())
	})

	t.Run("broken gzip", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader("not gzip"))
		request.Header.Set("Content-Encoding", "gzip")
		w := httptest.NewRecorder()
		echo.ServeHTTP(w, request)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGzipResponse(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))

	t.Run("client accepts gzip", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request)

		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(body))
	})

	t.Run("client does not accept gzip", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
		assert.Equal(t, `[]`, w.Body.String())
	})

	t.Run("no content is not compressed", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodDelete, "/empty", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Zero(t, w.Body.Len())
	})
}
