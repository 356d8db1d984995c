// Package blobstore wraps the S3-compatible object storage that holds
// translation artifacts, including issuance of scoped, time-limited
// locator URLs.
package blobstore

import (
	"context"
	"time"

	"github.com/PlumyCat/trad-bot-src/internal/state"
)

// ObjectInfo describes one stored artifact.
type ObjectInfo struct {
	Name         string
	LastModified time.Time
}

// Store is the object-storage collaborator consumed by the workflow core.
// An area is one storage container (bucket).
type Store interface {
	Upload(ctx context.Context, area, name string, data []byte, contentType string) error
	Download(ctx context.Context, area, name string) ([]byte, error)
	Exists(ctx context.Context, area, name string) (bool, error)
	Delete(ctx context.Context, area, name string) error
	List(ctx context.Context, area string) ([]ObjectInfo, error)

	// Presign issues a locator valid only for the named object and
	// permission, expiring exactly at issuance+expiry. The object name is
	// percent-encoded in the returned URL.
	Presign(ctx context.Context, area, name string, perm state.Permission, expiry time.Duration) (state.Locator, error)
}
