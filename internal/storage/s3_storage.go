package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/anufa/anufa-backend/config"
)

const presignExpiry = 15 * time.Minute

// AllowedImageTypes maps accepted content types to the extension used when
// the client filename has none.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var ErrContentTypeNotAllowed = errors.New("content type not allowed")

// S3Storage issues presigned PUT URLs for product images.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
	baseURL string
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(ctx context.Context, cfg *config.S3Config) *S3Storage {
	var awsCfg aws.Config

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		// default chain: env, shared config, instance role
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			loaded = aws.Config{Region: cfg.Region}
		}
		awsCfg = loaded
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// PresignProductImage returns a URL the client PUTs the image bytes to. The
// key is namespaced by product so re-uploads never overwrite each other.
func (s *S3Storage) PresignProductImage(ctx context.Context, productID uint, filename, contentType string) (*PresignedUpload, error) {
	defaultExt, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}

	key := ObjectKey(productID, filename, defaultExt)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.publicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry).UTC(),
	}, nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ObjectKey builds products/<id>/<uuid><ext>; product 0 means "not yet created".
func ObjectKey(productID uint, filename, defaultExt string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		ext = defaultExt
	}
	folder := "unassigned"
	if productID != 0 {
		folder = fmt.Sprintf("%d", productID)
	}
	return path.Join("products", folder, uuid.NewString()+ext)
}
