package utils

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/logging"
)

// SpacesClient archives uploaded CVs in DigitalOcean Spaces
type SpacesClient struct {
	client     s3iface.S3API
	bucketName string
	bucketURL  string
	cdnURL     string
	region     string
	logger     logging.Logger
}

// NewSpacesClient creates a new DigitalOcean Spaces client
func NewSpacesClient(cfg *config.Config) (*SpacesClient, error) {
	logger := logging.GetGlobalLogger()
	spaces := cfg.DigitalOcean.Spaces

	if spaces.AccessKeyID == "" || spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces credentials are required")
	}

	if spaces.BucketURL == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces bucket URL is required")
	}

	// Spaces expects the regional endpoint, not the bucket URL
	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", spaces.Region)

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			spaces.AccessKeyID,
			spaces.AccessKeySecret,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(spaces.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DigitalOcean Spaces session: %w", err)
	}

	logger.Info("DigitalOcean Spaces client initialized", map[string]interface{}{
		"bucket_name": spaces.BucketName,
		"region":      spaces.Region,
		"endpoint":    endpoint,
	})

	return newSpacesClient(s3.New(sess), spaces.BucketName, spaces.BucketURL, spaces.CDNEndpoint, spaces.Region), nil
}

func newSpacesClient(client s3iface.S3API, bucketName, bucketURL, cdnURL, region string) *SpacesClient {
	return &SpacesClient{
		client:     client,
		bucketName: bucketName,
		bucketURL:  bucketURL,
		cdnURL:     cdnURL,
		region:     region,
		logger:     logging.GetGlobalLogger(),
	}
}

// CVObjectKey returns the object key an uploaded CV is stored under
func CVObjectKey(ownerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	if ownerID == "" {
		ownerID = "anonymous"
	}
	return fmt.Sprintf("candidates/cv/%s/%s%s", ownerID, uuid.New().String(), ext)
}

// UploadCV stores a CV and returns its public URL
func (sc *SpacesClient) UploadCV(ownerID, filename, contentType string, data []byte) (string, error) {
	objectKey := CVObjectKey(ownerID, filename)
	if contentType == "" {
		contentType = "application/pdf"
	}

	sc.logger.Info("Uploading CV to DigitalOcean Spaces", map[string]interface{}{
		"owner_id":   ownerID,
		"object_key": objectKey,
		"size_bytes": len(data),
	})

	_, err := sc.client.PutObject(&s3.PutObjectInput{
		Bucket:             aws.String(sc.bucketName),
		Key:                aws.String(objectKey),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", path.Base(filename))),
		ACL:                aws.String("public-read"),
	})
	if err != nil {
		sc.logger.Error("Failed to upload CV to DigitalOcean Spaces", map[string]interface{}{
			"owner_id":   ownerID,
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("failed to upload CV: %w", err)
	}

	url := sc.PublicURL(objectKey)
	sc.logger.Info("CV uploaded successfully", map[string]interface{}{
		"owner_id":   ownerID,
		"object_key": objectKey,
		"url":        url,
	})
	return url, nil
}

// PublicURL builds the URL of an object, preferring the CDN
func (sc *SpacesClient) PublicURL(objectKey string) string {
	if sc.cdnURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(sc.cdnURL, "/"), objectKey)
	}

	if sc.bucketURL != "" {
		base := strings.TrimRight(sc.bucketURL, "/")
		if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
			base = "https://" + base
		}
		return fmt.Sprintf("%s/%s", base, objectKey)
	}

	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", sc.bucketName, sc.region, objectKey)
}

// IsHealthy checks if the Spaces client can reach the bucket
func (sc *SpacesClient) IsHealthy() bool {
	_, err := sc.client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(sc.bucketName),
	})
	if err != nil {
		sc.logger.Error("DigitalOcean Spaces health check failed", map[string]interface{}{
			"bucket_name": sc.bucketName,
			"error":       err.Error(),
		})
		return false
	}
	return true
}
