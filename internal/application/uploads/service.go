package uploads

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"teamhub-backend/internal/pkg/apperrors"
)

// Buckets files may be uploaded to.
const (
	BucketLogos     = "org-logos"
	BucketDocuments = "org-documents"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// StorageClient signs upload URLs for the object store.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
	PublicURL(bucket, path string) string
}

// Service hands out signed upload URLs scoped to an organization.
type Service struct {
	Client StorageClient
	Now    func() time.Time
}

// UploadResult is returned to the browser, which uploads directly to storage.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// SanitizeFileName keeps the base name and replaces anything unusual with '_'.
func SanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return unsafeChars.ReplaceAllString(base, "_")
}

// GetSignedUploadURL signs <orgID>/<millis>-<fileName> in bucket.
func (s *Service) GetSignedUploadURL(ctx context.Context, bucket, orgID, fileName string) (*UploadResult, error) {
	const op = "uploads.GetSignedUploadURL"
	name := SanitizeFileName(fileName)
	if name == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, op, "empty file name").WithUserMessage("file_name is required")
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	objectPath := fmt.Sprintf("%s/%d-%s", orgID, now.UnixMilli(), name)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CreateFailed, op, "sign upload url").
			WithUserMessage("Could not prepare the upload")
	}
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: s.Client.PublicURL(bucket, objectPath),
		Path:      objectPath,
	}, nil
}
