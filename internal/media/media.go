package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"nutrisnap/internal/config"
	"nutrisnap/internal/model"
)

// Service uploads scan and post images to Cloudflare R2. Scans arrive as
// base64 JPEG straight from the device camera; they are normalized and
// stored so feed posts can reference a stable public URL instead of
// carrying megabytes of base64 around.
type Service struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewService constructs an S3-compatible client for Cloudflare R2.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Service{
		s3Client:  s3Client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadScanImage stores a scanned meal photo and returns its public URL.
func (s *Service) UploadScanImage(ctx context.Context, base64Image string) (*model.UploadResult, error) {
	return s.uploadBase64(ctx, base64Image, model.ScanFolder)
}

// UploadPostImage stores the image attached to a shared post.
func (s *Service) UploadPostImage(ctx context.Context, base64Image string) (*model.UploadResult, error) {
	return s.uploadBase64(ctx, base64Image, model.PostFolder)
}

func (s *Service) uploadBase64(ctx context.Context, base64Image, folder string) (*model.UploadResult, error) {
	data, err := decodeAndValidate(base64Image)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := normalizeToJPEG(data, model.ScanImageMaxWidth, 80)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), model.ImageExt)

	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.ImageCacheControl); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", s.publicURL, key)
	return &model.UploadResult{URL: url, Key: key}, nil
}

// decodeAndValidate accepts raw base64 or a data URL, with size and type
// checks.
func decodeAndValidate(base64Image string) ([]byte, error) {
	if idx := strings.Index(base64Image, ","); idx != -1 && strings.HasPrefix(base64Image, "data:") {
		base64Image = base64Image[idx+1:]
	}

	if base64.StdEncoding.DecodedLen(len(base64Image)) > model.MaxImageSizeBytes {
		return nil, model.ErrFileTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(base64Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(data) > model.MaxImageSizeBytes {
		return nil, model.ErrFileTooLarge
	}

	contentType := http.DetectContentType(data[:min(len(data), 512)])
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}

	return data, nil
}

// normalizeToJPEG caps the width (preserving aspect ratio) and re-encodes
// as JPEG.
func normalizeToJPEG(data []byte, maxWidth, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *Service) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key.
func (s *Service) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
