package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient holds customer design uploads. Files live under
// sessions/{session_id}/designs/{filename} in a public bucket so
// preview URLs can go straight into chat responses.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func (s *StorageClient) UploadDesign(sessionID, filename string, data []byte) (string, string, error) {
	storagePath := fmt.Sprintf("sessions/%s/designs/%s", sessionID, filename)

	contentType := contentTypeFor(filename)
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload design: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteSessionFiles removes every design uploaded for a session.
func (s *StorageClient) DeleteSessionFiles(sessionID string) error {
	prefix := fmt.Sprintf("sessions/%s/designs/", sessionID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}

func contentTypeFor(filename string) string {
	lowered := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lowered, ".png"):
		return "image/png"
	case strings.HasSuffix(lowered, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(lowered, ".pdf"):
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}
