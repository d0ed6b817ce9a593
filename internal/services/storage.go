package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"listify_echo/internal/config"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StorageService uploads receipt images to an object storage bucket
type StorageService struct {
	cfg    config.StorageConfig
	client *http.Client
}

func NewStorageService(cfg config.StorageConfig) *StorageService {
	return &StorageService{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *StorageService) Configured() bool {
	return s.cfg.URL != "" && s.cfg.Bucket != ""
}

// Upload stores the content under a unique name and returns its public URL
func (s *StorageService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("storage not configured")
	}

	object := fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFilename(filename))
	base := strings.TrimRight(s.cfg.URL, "/")
	target := fmt.Sprintf("%s/object/%s/%s", base, s.cfg.Bucket, object)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if s.cfg.ServiceKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.ServiceKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(msg))
	}

	return fmt.Sprintf("%s/object/public/%s/%s", base, s.cfg.Bucket, object), nil
}

func sanitizeFilename(name string) string {
	name = unsafeFileChars.ReplaceAllString(path.Base(strings.ReplaceAll(name, "\\", "/")), "_")
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
