// Package media stores uploaded images in S3-compatible object storage and
// returns their public URLs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/google/uuid"
)

// Folder is the key prefix an upload lands under.
type Folder string

const (
	ProfilePictures Folder = "profile_pics"
	MessageImages   Folder = "message_images"
)

var profileFormats = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

// Allows reports whether ext may be stored in f.
func (f Folder) Allows(ext string) bool {
	if f == ProfilePictures {
		return profileFormats[ext]
	}
	return ext != ""
}

// Uploader is the part of the S3 client the store uses.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Store struct {
	client    Uploader
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Store builds an S3 client with static credentials against the
// configured endpoint. Path-style addressing keeps MinIO happy.
func NewS3Store(ctx context.Context, c *sc.Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return NewS3StoreWithClient(client, c.S3Bucket, c.S3PublicURL), nil
}

func NewS3StoreWithClient(client Uploader, bucket, publicURL string) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Upload decodes a data URL, stores it under folder and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, folder Folder, dataURL string) (string, error) {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if !folder.Allows(img.Ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, img.Ext)
	}

	key := s.objectKey(folder, img.Ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *S3Store) objectKey(folder Folder, ext string) string {
	d := s.now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.%s", folder, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
