package s3legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// Store resolves legacy opaque storage handles against the S3-compatible
// backend the platform is migrating away from. Handles map 1:1 onto object
// keys in the legacy bucket; resolution produces a presigned GET URL.
type Store interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	ObjectExists(ctx context.Context, handle string) (bool, error)
	DeleteObject(ctx context.Context, handle string) error
}

type store struct {
	log      *logger.Logger
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	urlTTL   time.Duration
	disabled bool
}

func NewStore(ctx context.Context, log *logger.Logger) (Store, error) {
	serviceLog := log.With("service", "LegacyStore")

	bucket := envutil.String("LEGACY_S3_BUCKET", "")
	accessKey := envutil.String("LEGACY_S3_ACCESS_KEY_ID", "")
	secretKey := envutil.String("LEGACY_S3_SECRET_KEY", "")
	region := envutil.String("LEGACY_S3_REGION", "us-east-1")
	endpoint := envutil.String("LEGACY_S3_ENDPOINT", "")

	if bucket == "" || accessKey == "" || secretKey == "" {
		serviceLog.Warn("LEGACY_S3_BUCKET or credentials not set; legacy handle resolution disabled")
		return &store{log: serviceLog, disabled: true}, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, reg string, options ...interface{}) (aws.Endpoint, error) {
		if endpoint != "" {
			return aws.Endpoint{URL: endpoint, PartitionID: "aws", SigningRegion: region}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = envutil.Bool("LEGACY_S3_USE_PATH_STYLE", false)
	})

	return &store{
		log:     serviceLog,
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		urlTTL:  envutil.DurationSeconds("LEGACY_S3_URL_TTL_SECONDS", 7*24*3600),
	}, nil
}

func (s *store) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", apperr.ErrNoLocator
	}
	if s.disabled {
		return "", fmt.Errorf("legacy storage backend not configured")
	}

	exists, err := s.ObjectExists(ctx, handle)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("legacy handle %q: %w", handle, apperr.ErrObjectNotFound)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("presign legacy handle %q: %w", handle, err)
	}
	return req.URL, nil
}

func (s *store) ObjectExists(ctx context.Context, handle string) (bool, error) {
	if s.disabled {
		return false, fmt.Errorf("legacy storage backend not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *store) DeleteObject(ctx context.Context, handle string) error {
	if s.disabled {
		return fmt.Errorf("legacy storage backend not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("delete legacy object %q: %w", handle, err)
	}
	return nil
}
