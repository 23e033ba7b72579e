package core

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client defines the calls the uploader needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader publishes the workbook and label images to S3.
type S3Uploader struct {
	Client S3Client
	Bucket string
	Prefix string
}

// NewS3Uploader creates a new uploader.
func NewS3Uploader(cfg aws.Config, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

// objectKey joins the prefix and a slash-separated relative path.
func (u *S3Uploader) objectKey(rel string) string {
	return strings.TrimPrefix(path.Join(u.Prefix, rel), "/")
}

// UploadWorkbook uploads the workbook under the prefix using its base name.
func (u *S3Uploader) UploadWorkbook(ctx context.Context, workbookPath string) error {
	return u.UploadFile(ctx, workbookPath, u.objectKey(filepath.Base(workbookPath)))
}

// UploadDirectory walks localDir and uploads every file under prefix/<dir name>/.
func (u *S3Uploader) UploadDirectory(ctx context.Context, localDir string) error {
	root := filepath.Base(filepath.Clean(localDir))
	return filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		return u.UploadFile(ctx, p, u.objectKey(path.Join(root, filepath.ToSlash(rel))))
	})
}

// UploadFile uploads a single file to S3.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	slog.Info("Uploading to S3", "local", localPath, "bucket", u.Bucket, "key", key)

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}
