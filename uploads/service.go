// Package uploads issues pre-signed S3 PUT URLs for product images. The
// browser uploads directly to the bucket; this backend never touches the
// bytes.
package uploads

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
)

// urlExpiry is how long an issued upload URL stays valid.
const urlExpiry = 300 * time.Second

// contentTypeExtensions maps the accepted image content types to the file
// extension used in the object key.
var contentTypeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Presigner signs a PUT for one object key. Satisfied by the AWS S3
// presign client; tests substitute a fake.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expiry time.Duration) (string, error)
}

type Service struct {
	presigner Presigner
	bucket    string
	log       *zap.Logger
}

func NewService(presigner Presigner, bucket string, log *zap.Logger) *Service {
	return &Service{presigner: presigner, bucket: bucket, log: log}
}

// Input is the upload-URL request payload.
type Input struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Result carries both the short-lived upload URL and the permanent public
// URL the product record should store.
type Result struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// GenerateUploadURL validates the requested file and returns a pre-signed
// PUT URL under a collision-free products/ key.
func (s *Service) GenerateUploadURL(ctx context.Context, input Input) (Result, error) {
	if input.FileName == "" || input.FileType == "" {
		return Result{}, apperr.NewValidation("fileName and fileType are required")
	}
	ext, ok := contentTypeExtensions[strings.ToLower(input.FileType)]
	if !ok {
		return Result{}, apperr.NewValidationWithFields(
			"File type not allowed. Only images are accepted",
			map[string]interface{}{"allowedTypes": allowedTypes()})
	}

	key := fmt.Sprintf("products/%d-%s.%s", time.Now().Unix(), uuid.NewString()[:8], ext)
	uploadURL, err := s.presigner.PresignPut(ctx, s.bucket, key, input.FileType, urlExpiry)
	if err != nil {
		return Result{}, apperr.NewInternal("Failed to generate upload URL", err)
	}

	s.log.Info("upload URL generated",
		zap.String("key", key),
		zap.String("content_type", input.FileType))
	return Result{
		UploadURL: uploadURL,
		PublicURL: fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key),
		Key:       key,
		ExpiresIn: int(urlExpiry.Seconds()),
	}, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(contentTypeExtensions))
	for t := range contentTypeExtensions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
