package media

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func dataURL(mediaType string, payload []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL(dataURL("image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	img, err = DecodeDataURL(dataURL("image/svg+xml", []byte("<svg/>")))
	require.NoError(t, err)
	assert.Equal(t, "svg", img.Ext)
}

func TestDecodeDataURL_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"no scheme", "image/png;base64,AAAA", ErrInvalidDataURL},
		{"no comma", "data:image/png;base64", ErrInvalidDataURL},
		{"not base64", "data:image/png,raw", ErrInvalidDataURL},
		{"bad payload", "data:image/png;base64,!!!", ErrInvalidDataURL},
		{"empty payload", "data:image/png;base64,", ErrInvalidDataURL},
		{"not an image", dataURL("text/plain", []byte("x")), ErrUnsupportedFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDataURL(tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeDataURL_TooLarge(t *testing.T) {
	_, err := DecodeDataURL(dataURL("image/png", make([]byte, MaxImageBytes+1)))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestFolderAllows(t *testing.T) {
	for _, ext := range []string{"jpg", "jpeg", "png", "webp"} {
		assert.True(t, ProfilePictures.Allows(ext), ext)
	}
	assert.False(t, ProfilePictures.Allows("gif"))
	assert.True(t, MessageImages.Allows("gif"))
	assert.False(t, MessageImages.Allows(""))
}

func TestUpload_Success(t *testing.T) {
	up := &fakeUploader{}
	s := NewS3StoreWithClient(up, "gophchat", "http://cdn.local/gophchat/")
	s.now = func() time.Time { return time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC) }

	url, err := s.Upload(context.Background(), MessageImages, dataURL("image/gif", []byte("gif")))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^http://cdn\.local/gophchat/message_images/2026/04/07/[0-9a-f-]{36}\.gif$`), url)
	require.NotNil(t, up.in)
	assert.Equal(t, "gophchat", aws.ToString(up.in.Bucket))
	assert.Equal(t, "image/gif", aws.ToString(up.in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(up.in.ContentLength))
	assert.True(t, strings.HasSuffix(url, aws.ToString(up.in.Key)))
	assert.Equal(t, []byte("gif"), up.body)
}

func TestUpload_ProfileRejectsFormat(t *testing.T) {
	up := &fakeUploader{}
	s := NewS3StoreWithClient(up, "b", "http://cdn")

	_, err := s.Upload(context.Background(), ProfilePictures, dataURL("image/gif", []byte("gif")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Nil(t, up.in)
}

func TestUpload_PutError(t *testing.T) {
	s := NewS3StoreWithClient(&fakeUploader{err: errors.New("minio down")}, "b", "http://cdn")

	_, err := s.Upload(context.Background(), ProfilePictures, dataURL("image/png", []byte("p")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio down")
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	store, err := NewS3Store(context.Background(), &sc.Config{
		S3Region:       "eu-west-1",
		S3RootUser:     "user",
		S3RootPassword: "pass",
		S3BaseEndpoint: "http://minio:9000",
		S3Bucket:       "bucket",
		S3PublicURL:    "http://minio:9000/bucket/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "bucket", store.bucket)
	assert.Equal(t, "http://minio:9000/bucket", store.publicURL)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), &sc.Config{})
	assert.ErrorContains(t, err, "no config")
}
