package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SupabaseStore struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	logger     *slog.Logger
}

func NewSupabaseStore(baseURL, serviceKey string, timeout time.Duration, logger *slog.Logger) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (s *SupabaseStore) objectURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, bucket, url.PathEscape(name))
}

func (s *SupabaseStore) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, url.PathEscape(name))
}

func (s *SupabaseStore) Upload(ctx context.Context, bucket, name, contentType string, body io.Reader, size int64) (string, error) {
	if !validObjectName(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(bucket, name), body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	s.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Error("supabase upload rejected", "bucket", bucket, "name", name, "status", resp.StatusCode, "body", string(msg))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	s.logger.Info("object uploaded", "bucket", bucket, "name", name, "size", size)
	return s.PublicURL(bucket, name), nil
}

// Delete removes an object. A missing object counts as deleted.
func (s *SupabaseStore) Delete(ctx context.Context, bucket, name string) error {
	if !validObjectName(name) {
		return fmt.Errorf("invalid object name %q", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(bucket, name), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	s.logger.Info("object deleted", "bucket", bucket, "name", name)
	return nil
}

func (s *SupabaseStore) NameFromURL(bucket, publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, bucket)
	return nameAfterPrefix(prefix, publicURL)
}

func (s *SupabaseStore) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
}

func nameAfterPrefix(prefix, publicURL string) (string, bool) {
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || !validObjectName(name) {
		return "", false
	}
	return name, true
}
