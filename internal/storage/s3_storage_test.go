package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anufa/anufa-backend/config"
)

func testStorage(baseURL string) *S3Storage {
	return NewS3Storage(context.Background(), &config.S3Config{
		Region:          "us-east-1",
		Bucket:          "anufa-test",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		BaseURL:         baseURL,
	})
}

func TestPresignProductImage(t *testing.T) {
	s := testStorage("")

	upload, err := s.PresignProductImage(context.Background(), 42, "Front View.PNG", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "products/42/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Contains(t, upload.UploadURL, "anufa-test")
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://anufa-test.s3.us-east-1.amazonaws.com/"+upload.Key, upload.FileURL)
}

func TestPresignProductImage_BaseURLAndDefaults(t *testing.T) {
	s := testStorage("https://cdn.example.com/")

	upload, err := s.PresignProductImage(context.Background(), 0, "blob", "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "products/unassigned/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".jpg"))
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, upload.FileURL)
}

func TestPresignProductImage_RejectsNonImages(t *testing.T) {
	s := testStorage("")

	_, err := s.PresignProductImage(context.Background(), 1, "run.sh", "application/x-sh")
	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
}

func TestObjectKey_UniquePerCall(t *testing.T) {
	a := ObjectKey(1, "a.webp", ".webp")
	b := ObjectKey(1, "a.webp", ".webp")
	assert.NotEqual(t, a, b)
}
