package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const MaxImageSize = 5 << 20

var (
	ErrStorageDisabled = errors.New("image storage not configured")
	ErrNotImage        = errors.New("file is not an image")
	ErrImageTooLarge   = errors.New("image exceeds 5 MB")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore keeps product photos in a MinIO bucket.
type ImageStore struct {
	client *minio.Client
	bucket string
	base   string
}

func NewImageStore(client *minio.Client, endpoint, bucket string, useSSL bool) *ImageStore {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return &ImageStore{
		client: client,
		bucket: bucket,
		base:   fmt.Sprintf("%s://%s/%s/", scheme, endpoint, bucket),
	}
}

func (s *ImageStore) Enabled() bool { return s != nil && s.client != nil }

// ObjectName places every upload under its product with a random name, so
// two files called photo.jpg never overwrite each other.
func ObjectName(productID, contentType string) (string, error) {
	ext, ok := imageExt[strings.ToLower(contentType)]
	if !ok {
		return "", ErrNotImage
	}
	return path.Join("products", productID, uuid.NewString()+ext), nil
}

func (s *ImageStore) PublicURL(object string) string {
	return s.base + object
}

// Upload stores the file and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	if file.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}
	contentType := file.Header.Get("Content-Type")
	object, err := ObjectName(productID, contentType)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, s.bucket, object, f, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", object, err)
	}
	log.Printf("🖼️ Uploaded %s", object)
	return s.PublicURL(object), nil
}
