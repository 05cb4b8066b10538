package model

import "errors"

// Upload constraints and storage layout for scan and post images.
const (
	MaxImageSizeBytes = 10 << 20 // 10 MB

	ScanFolder = "scans"
	PostFolder = "posts"

	ScanImageMaxWidth = 1080

	ContentTypeJPEG = "image/jpeg"
	ImageExt        = ".jpg"

	ImageCacheControl = "public, max-age=31536000, immutable"
)

var (
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult is returned after a successful object store upload.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports whether a MIME type is accepted for upload.
func IsAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}
