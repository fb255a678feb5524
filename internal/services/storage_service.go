// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/config"
)

// StorageService uploads images to S3, or to a local directory when no AWS
// credentials are configured.
type StorageService struct {
	s3Client s3iface.S3API
	aws      config.AWSConfig
	storage  config.StorageConfig
	log      *logrus.Entry
	now      func() time.Time
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{
		aws:     cfg.AWS,
		storage: cfg.Storage,
		log:     logrus.WithField("component", "storage"),
		now:     time.Now,
	}

	if cfg.AWS.AccessKeyID == "" {
		// Local development
		svc.log.WithField("dir", cfg.Storage.LocalDir).Info("S3 not configured; storing uploads on local disk")
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.s3Client = s3.New(sess)
	return svc, nil
}

// NewStorageServiceWithClient is used by tests to inject an S3 double.
func NewStorageServiceWithClient(client s3iface.S3API, awsCfg config.AWSConfig, storageCfg config.StorageConfig) *StorageService {
	return &StorageService{
		s3Client: client,
		aws:      awsCfg,
		storage:  storageCfg,
		log:      logrus.WithField("component", "storage"),
		now:      time.Now,
	}
}

// UploadImage stores data under key and returns its public URL.
func (s *StorageService) UploadImage(ctx context.Context, data []byte, key, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, contentType)
	}
	return s.uploadToLocal(data, key)
}

// UploadDataURL stores a member avatar and returns its public URL.
func (s *StorageService) UploadDataURL(ctx context.Context, dataURL, clubID string) (string, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s/%d-avatar.png", clubID, s.now().UnixMilli())
	return s.UploadImage(ctx, img.Data, key, "image/png")
}

// StyleImageURL resolves a style reference image. Styles uploaded to the
// bucket win; otherwise the bundled copy served with the static assets is used.
func (s *StorageService) StyleImageURL(ctx context.Context, name string) string {
	fallback := strings.TrimRight(s.storage.StaticBaseURL, "/") + "/assets/styles/" + name
	if s.s3Client == nil {
		return fallback
	}

	key := "styles/" + name
	_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if !errors.As(err, &aerr) || aerr.Code() != "NotFound" {
			s.log.WithError(err).WithField("key", key).Warn("Style lookup failed")
		}
		return fallback
	}
	return s.publicURL(key)
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		path := filepath.Join(s.storage.LocalDir, filepath.FromSlash(key))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// DeleteUploaded removes an avatar previously returned by UploadDataURL.
// URLs this service did not issue are ignored.
func (s *StorageService) DeleteUploaded(ctx context.Context, fileURL string) error {
	key, ok := s.keyForURL(fileURL)
	if !ok {
		return nil
	}
	if err := s.DeleteFile(ctx, key); err != nil {
		return err
	}
	s.log.WithField("key", key).Info("Replaced avatar deleted")
	return nil
}

// keyForURL maps a public avatar URL back to its storage key.
func (s *StorageService) keyForURL(fileURL string) (string, bool) {
	base := s.publicURL("")
	if s.s3Client == nil {
		base = s.localURL("")
	}
	key, ok := strings.CutPrefix(fileURL, base)
	if !ok || !strings.HasPrefix(key, "avatars/") || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.log.WithFields(logrus.Fields{"key": key, "size": len(data)}).Info("Image uploaded")
	return s.publicURL(key), nil
}

func (s *StorageService) uploadToLocal(data []byte, key string) (string, error) {
	path := filepath.Join(s.storage.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.log.WithFields(logrus.Fields{"path": path, "size": len(data)}).Debug("Image stored locally")
	return s.localURL(key), nil
}

func (s *StorageService) localURL(key string) string {
	return strings.TrimRight(s.storage.PublicBaseURL, "/") + "/" + key
}

func (s *StorageService) publicURL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.aws.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.aws.S3Bucket, s.aws.Region, key)
}
