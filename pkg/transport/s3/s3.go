// Package s3 reaches a remote target stored in an S3 bucket. Locations are
// written s3://bucket/prefix/ and object keys hold decoded names.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spf13/afero"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// API is the part of *s3.Client the transport calls directly.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader is satisfied by *manager.Uploader.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Transport struct {
	client   API
	uploader Uploader
	fs       afero.Fs
}

var _ transport.Transport = (*Transport)(nil)

// NewFromConfig builds a Transport on a real S3 client.
func NewFromConfig(cfg aws.Config) *Transport {
	client := s3.NewFromConfig(cfg)
	return New(client, manager.NewUploader(client), afero.NewOsFs())
}

func New(client API, uploader Uploader, fs afero.Fs) *Transport {
	return &Transport{
		client:   client,
		uploader: uploader,
		fs:       fs,
	}
}

// ParseURI splits an s3:// location into bucket and key prefix.
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("URI must start with s3://")
	}

	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}

	if bucket == "" {
		return "", "", fmt.Errorf("bucket name cannot be empty")
	}

	return bucket, prefix, nil
}

// objectLocation resolves a remote URI formed by transport.JoinURI to the
// bucket and decoded object key.
func objectLocation(remoteURI string) (bucket, key string, err error) {
	bucket, encoded, err := ParseURI(remoteURI)
	if err != nil {
		return "", "", err
	}
	key, err = url.PathUnescape(encoded)
	if err != nil {
		return "", "", fmt.Errorf("invalid object key %q: %w", encoded, err)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("no object key in %q", remoteURI)
	}
	return bucket, key, nil
}

// apiError keeps the S3 error code in the failure text so that throttling
// and access errors are classified like device messages.
func apiError(op, target string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &transport.CommandError{
			Op:     op,
			Target: target,
			Stderr: apiErr.ErrorCode() + ": " + apiErr.ErrorMessage(),
			Err:    err,
		}
	}
	return &transport.CommandError{Op: op, Target: target, Err: err}
}

func listPrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// formatListing renders objects directly under prefix in the
// "encoded-name<TAB>size" layout the inventory parser reads.
func formatListing(prefix string, objects []types.Object) string {
	var b strings.Builder
	for _, obj := range objects {
		if obj.Key == nil || obj.Size == nil {
			continue
		}
		name := strings.TrimPrefix(*obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		fmt.Fprintf(&b, "%s\t%d\n", transport.EncodeName(name), aws.ToInt64(obj.Size))
	}
	return b.String()
}

func (t *Transport) List(ctx context.Context, base string) (string, error) {
	bucket, prefix, err := ParseURI(base)
	if err != nil {
		return "", fmt.Errorf("invalid S3 URI: %w", err)
	}
	prefix = listPrefix(prefix)

	paginator := s3.NewListObjectsV2Paginator(t.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var b strings.Builder
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", apiError("list", base, err)
		}
		b.WriteString(formatListing(prefix, page.Contents))
	}
	return b.String(), nil
}

func (t *Transport) Copy(ctx context.Context, localPath, remoteURI string) error {
	bucket, key, err := objectLocation(remoteURI)
	if err != nil {
		return err
	}

	file, err := t.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := t.uploader.Upload(ctx, input); err != nil {
		return apiError("copy", remoteURI, err)
	}
	return nil
}

func (t *Transport) Delete(ctx context.Context, remoteURI string) error {
	bucket, key, err := objectLocation(remoteURI)
	if err != nil {
		return err
	}

	_, err = t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apiError("delete", remoteURI, err)
	}
	return nil
}

func (t *Transport) ReadAll(ctx context.Context, remoteURI string) ([]byte, error) {
	bucket, key, err := objectLocation(remoteURI)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apiError("read", remoteURI, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}
