package services

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client the uploader uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Service struct {
	client S3API
}

func NewS3Service(cfg aws.Config) *S3Service {
	return &S3Service{client: s3.NewFromConfig(cfg)}
}

// NewS3ServiceWithClient is used by tests to stub the S3 client.
func NewS3ServiceWithClient(client S3API) *S3Service {
	return &S3Service{client: client}
}

// UploadFile puts a single local file at bucket/key.
func (s *S3Service) UploadFile(ctx context.Context, bucket, key, path string) error {
	logger := zerolog.Ctx(ctx)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	defer func(begin time.Time) {
		logger.Info().
			Str("bucket", bucket).
			Str("key", key).
			Dur("duration", time.Since(begin)).
			Msg("Uploaded S3 object")
	}(time.Now())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(path)),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to bucket %s: %w", key, bucket, err)
	}
	return nil
}

// UploadDir walks dir and uploads every regular file under bucket/prefix,
// preserving relative paths. Used to stage built frontend assets.
func (s *S3Service) UploadDir(ctx context.Context, bucket, prefix, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := strings.TrimPrefix(prefix+"/"+filepath.ToSlash(rel), "/")
		if err := s.UploadFile(ctx, bucket, key, path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to upload directory %s: %w", dir, err)
	}
	return count, nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
