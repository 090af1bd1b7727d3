package convert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textforge/document-extractor/internal/models"
)

func TestConvertSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "legacy.doc", r.URL.Query().Get("filename"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"converted body","pages":1}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{Endpoint: srv.URL, Timeout: time.Second})
	text, err := c.Convert(context.Background(), []byte("payload"), "legacy.doc")
	require.NoError(t, err)
	assert.Equal(t, "converted body", text)
}

func TestConvertRejectedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unreadable stream", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(&Config{Endpoint: srv.URL, Timeout: time.Second})
	_, err := c.Convert(context.Background(), []byte("payload"), "legacy.doc")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrCorruptDocument))
}

func TestConvertServiceReportedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"password protected"}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{Endpoint: srv.URL, Timeout: time.Second})
	_, err := c.Convert(context.Background(), []byte("payload"), "legacy.doc")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrCorruptDocument))
	assert.Contains(t, err.Error(), "password protected")
}

func TestConvertTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(&Config{Endpoint: srv.URL, Timeout: 30 * time.Millisecond})
	_, err := c.Convert(context.Background(), []byte("payload"), "legacy.doc")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrConversionTimeout))
}
