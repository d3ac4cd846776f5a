package user

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MinIOAvatarStore keeps profile avatars in a public-read bucket so the
// stored URL stays valid without presigning on every read
type MinIOAvatarStore struct {
	client     *minio.Client
	bucketName string
	baseURL    string
}

func NewMinIOAvatarStore(client *minio.Client, bucketName string, useSSL bool) (*MinIOAvatarStore, error) {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	m := &MinIOAvatarStore{
		client:     client,
		bucketName: bucketName,
		baseURL:    fmt.Sprintf("%s://%s/%s", scheme, client.EndpointURL().Host, bucketName),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

// ensureBucket creates the bucket if it doesn't exist and opens it for reads
func (m *MinIOAvatarStore) ensureBucket(ctx context.Context) error {
	exist, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check whether bucket exist: %w", err)
	}

	if !exist {
		err = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Effect":    "Allow",
				"Principal": map[string]any{"AWS": []string{"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", m.bucketName)},
			},
		},
	}

	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal bucket policy: %w", err)
	}

	if err := m.client.SetBucketPolicy(ctx, m.bucketName, string(policyJSON)); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return nil
}

// Upload stores the avatar and returns its public URL
func (m *MinIOAvatarStore) Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("avatars/%s/%d%s", userID, time.Now().Unix(), extensionFor(contentType))

	_, err := m.client.PutObject(
		ctx,
		m.bucketName,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"user-id":  userID.String(),
				"uploaded": time.Now().Format(time.RFC3339),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s", m.baseURL, objectName), nil
}

// extensionFor maps image MIME type to a file extension
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
