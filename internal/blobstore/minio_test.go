package blobstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PlumyCat/trad-bot-src/internal/state"
)

// Presigning is local computation when the client region is pinned, so it
// can be exercised without any running storage service.
func newOfflineStore(t *testing.T) *MinioStore {
	t.Helper()
	store, err := NewMinioStore(MinioOptions{
		Endpoint:  "storage.example.com:9000",
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Region:    "us-east-1",
		UseSSL:    true,
	})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store
}

func TestPresignEncodesObjectName(t *testing.T) {
	t.Parallel()

	store := newOfflineStore(t)
	locator, err := store.Presign(context.Background(), "doc-trad", "my report-fr.docx", state.PermissionRead, 2*time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	if !strings.Contains(locator.URL, "my%20report-fr.docx") {
		t.Fatalf("object name must be percent-encoded in locator URL: %q", locator.URL)
	}
	if !strings.Contains(locator.URL, "X-Amz-Expires=7200") {
		t.Fatalf("locator must expire at issuance+duration: %q", locator.URL)
	}
	if !strings.Contains(locator.URL, "X-Amz-Signature=") {
		t.Fatalf("locator must be signed: %q", locator.URL)
	}
	if locator.Permission != state.PermissionRead {
		t.Fatalf("unexpected permission %q", locator.Permission)
	}
}

func TestPresignReadWriteUsesPut(t *testing.T) {
	t.Parallel()

	store := newOfflineStore(t)
	readLoc, err := store.Presign(context.Background(), "doc-trad", "out.docx", state.PermissionRead, time.Hour)
	if err != nil {
		t.Fatalf("presign read: %v", err)
	}
	writeLoc, err := store.Presign(context.Background(), "doc-trad", "out.docx", state.PermissionReadWrite, time.Hour)
	if err != nil {
		t.Fatalf("presign write: %v", err)
	}

	// A write locator signs a different method, so the two URLs must not
	// be interchangeable.
	if readLoc.URL == writeLoc.URL {
		t.Fatalf("read and write locators must differ")
	}
}
