package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/PlumyCat/trad-bot-src/internal/globaltime"
	"github.com/PlumyCat/trad-bot-src/internal/state"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioStore implements Store against MinIO or any S3-compatible service.
// Locators are presigned V4 URLs: HMAC-signed capabilities scoped to one
// object, one method and one expiry.
type MinioStore struct {
	client *minio.Client
	region string
}

func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &MinioStore{client: client, region: opts.Region}, nil
}

// EnsureAreas creates the given buckets when they do not exist yet.
func (s *MinioStore) EnsureAreas(ctx context.Context, areas ...string) error {
	for _, area := range areas {
		exists, err := s.client.BucketExists(ctx, area)
		if err != nil {
			return fmt.Errorf("check area %s: %w", area, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, area, minio.MakeBucketOptions{Region: s.region}); err != nil {
				return fmt.Errorf("make area %s: %w", area, err)
			}
		}
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, area, name string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, area, name, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("upload object %s/%s: %w", area, name, err)
	}
	return nil
}

func (s *MinioStore) Download(ctx context.Context, area, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, area, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", area, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", area, name, err)
	}
	return data, nil
}

func (s *MinioStore) Exists(ctx context.Context, area, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, area, name, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s/%s: %w", area, name, err)
	}
	return true, nil
}

func (s *MinioStore) Delete(ctx context.Context, area, name string) error {
	if err := s.client.RemoveObject(ctx, area, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s/%s: %w", area, name, err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, area string) ([]ObjectInfo, error) {
	var infos []ObjectInfo
	for obj := range s.client.ListObjects(ctx, area, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list area %s: %w", area, obj.Err)
		}
		infos = append(infos, ObjectInfo{
			Name:         obj.Key,
			LastModified: obj.LastModified,
		})
	}
	return infos, nil
}

func (s *MinioStore) Presign(ctx context.Context, area, name string, perm state.Permission, expiry time.Duration) (state.Locator, error) {
	issuedAt := globaltime.UTC()

	var (
		u   *url.URL
		err error
	)
	switch perm {
	case state.PermissionReadWrite:
		u, err = s.client.PresignedPutObject(ctx, area, name, expiry)
	default:
		u, err = s.client.PresignedGetObject(ctx, area, name, expiry, url.Values{})
	}
	if err != nil {
		return state.Locator{}, fmt.Errorf("presign object %s/%s: %w", area, name, err)
	}

	return state.Locator{
		URL:        u.String(),
		Permission: perm,
		ExpiresAt:  issuedAt.Add(expiry),
	}, nil
}
