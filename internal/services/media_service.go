// internal/services/media_service.go
package services

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/models"
)

// MediaService turns stored image keys into URLs clients can fetch. Uploads
// happen elsewhere; listings only carry object keys.
type MediaService struct {
	s3Client *s3.S3
	config   *config.Config
}

var allowedImageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func NewMediaService(config *config.Config) (*MediaService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local development serves images from LocalMediaPrefix
		return &MediaService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &MediaService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// ValidateImageKey checks that key is a relative object key of an image type.
func ValidateImageKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("image key must not be empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "://") {
		return fmt.Errorf("image key %q must be a relative object key", key)
	}

	ext := strings.ToLower(filepath.Ext(key))
	for _, allowed := range allowedImageTypes {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("image type %s is not allowed", ext)
}

// ResolveImageURL returns a fetchable URL for key: CloudFront when
// configured, a presigned S3 GET otherwise, or the local prefix in development.
func (s *MediaService) ResolveImageURL(key string) string {
	if s.s3Client == nil {
		return strings.TrimRight(s.config.Discovery.LocalMediaPrefix, "/") + "/" + key
	}
	if s.config.AWS.CloudFrontURL != "" {
		return strings.TrimRight(s.config.AWS.CloudFrontURL, "/") + "/" + key
	}

	url, err := s.presign(key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Falling back to public S3 URL")
		return s.publicS3URL(key)
	}
	return url
}

// ResolveProductImages fills ImageURLs for each product in place.
func (s *MediaService) ResolveProductImages(products ...*models.Product) {
	for _, p := range products {
		urls := make([]string, 0, len(p.ImageKeys))
		for _, key := range p.ImageKeys {
			urls = append(urls, s.ResolveImageURL(key))
		}
		p.ImageURLs = urls
	}
}

func (s *MediaService) presign(key string) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(s.config.AWS.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *MediaService) publicS3URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, path.Clean(key))
}
