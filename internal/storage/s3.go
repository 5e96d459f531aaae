package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
)

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleteAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Media relocates locally staged upload files to an S3-compatible bucket
// and hands back stable public URLs. Uploads are best-effort: a failure
// yields an empty URL rather than an error, and the local temp file is
// removed exactly once on every path.
type S3Media struct {
	uploader uploadAPI
	client   deleteAPI
	bucket   string
	baseURL  string
	logger   *slog.Logger
}

// NewS3Media configures an uploader targeting the provided object store.
func NewS3Media(ctx context.Context, cfg config.ObjectStoreConfig, logger *slog.Logger) (*S3Media, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 media: bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Media{
		uploader: uploader,
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:   logger,
	}, nil
}

// Upload moves the file at localPath into the bucket under a fresh key and
// returns its public URL, or "" when localPath is empty or the upload fails.
// The local file is deleted before returning, success or not; callers must
// treat an empty result as a failed upload.
func (m *S3Media) Upload(ctx context.Context, localPath string) string {
	if localPath == "" {
		return ""
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("remove temp upload file", "path", localPath, "error", err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		m.logger.Error("open temp upload file", "path", localPath, "error", err)
		return ""
	}
	defer f.Close()

	key := "uploads/" + uuid.NewString() + strings.ToLower(path.Ext(localPath))

	_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		m.logger.Error("upload media object", "key", key, "error", err)
		return ""
	}

	return m.publicURL(key)
}

// Remove deletes a previously uploaded object by its public URL. Failures
// are logged, never surfaced: losing an orphaned object must not fail the
// request that replaced it.
func (m *S3Media) Remove(ctx context.Context, fileURL string) {
	key := m.keyFromURL(fileURL)
	if key == "" {
		return
	}

	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		m.logger.Warn("delete media object", "key", key, "error", err)
	}
}

func (m *S3Media) publicURL(key string) string {
	if m.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", m.baseURL, key)
}

func (m *S3Media) keyFromURL(fileURL string) string {
	if fileURL == "" {
		return ""
	}
	if m.baseURL == "" {
		return fileURL
	}
	if !strings.HasPrefix(fileURL, m.baseURL+"/") {
		return ""
	}
	return strings.TrimPrefix(fileURL, m.baseURL+"/")
}
