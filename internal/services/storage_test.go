package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/config"
)

func TestStorageUpload(t *testing.T) {
	var gotPath, gotAuth, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewStorageService(config.StorageConfig{URL: srv.URL + "/", ServiceKey: "key", Bucket: "receipts"})
	url, err := svc.Upload(context.Background(), "../bon 1.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/object/receipts/"))
	assert.True(t, strings.HasSuffix(gotPath, "-bon_1.png"))
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png", gotBody)

	object := strings.TrimPrefix(gotPath, "/object/receipts/")
	assert.Equal(t, srv.URL+"/object/public/receipts/"+object, url)
}

func TestStorageUploadErrors(t *testing.T) {
	_, err := NewStorageService(config.StorageConfig{}).Upload(context.Background(), "a.png", "", strings.NewReader(""))
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err = NewStorageService(config.StorageConfig{URL: srv.URL, Bucket: "receipts"}).
		Upload(context.Background(), "a.png", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
