package services

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "factura/pkg/errors"
)

// fakeCache 内存验证缓存，配合缓存清理行为的测试
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, digest string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[digest], nil
}

func (f *fakeCache) Set(_ context.Context, digest, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[digest] = tenantID
	return nil
}

func (f *fakeCache) Delete(_ context.Context, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, digest)
	return nil
}

func TestAPIKeyService_IssueAndVerify(t *testing.T) {
	db := setupTestDB(t)
	service := NewAPIKeyService(db, nil)

	t.Run("Issue Returns Raw Key Once", func(t *testing.T) {
		rawKey, err := service.Issue("tenant-a")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		if rawKey == "" {
			t.Fatal("expected non-empty raw key")
		}

		key, err := service.GetByTenant("tenant-a")
		if err != nil {
			t.Fatalf("failed to get key metadata: %v", err)
		}
		if key == nil || key.Revoked {
			t.Fatal("expected active key record")
		}
		if key.KeyHash == rawKey {
			t.Error("raw key must never be stored verbatim")
		}

		tenantID, err := service.Verify(rawKey)
		if err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}
		if tenantID != "tenant-a" {
			t.Errorf("expected tenant-a, got %q", tenantID)
		}
	})

	t.Run("Reissue Replaces Previous Key", func(t *testing.T) {
		first, err := service.Issue("tenant-b")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		second, err := service.Issue("tenant-b")
		if err != nil {
			t.Fatalf("failed to reissue key: %v", err)
		}
		if first == second {
			t.Fatal("expected a fresh key on reissue")
		}

		if tenantID, _ := service.Verify(first); tenantID != "" {
			t.Error("replaced key must stop verifying immediately")
		}
		if tenantID, _ := service.Verify(second); tenantID != "tenant-b" {
			t.Errorf("expected tenant-b for current key, got %q", tenantID)
		}
	})

	t.Run("Unknown Key", func(t *testing.T) {
		tenantID, err := service.Verify("not-a-key")
		if err != nil {
			t.Fatalf("unknown key must not be an error: %v", err)
		}
		if tenantID != "" {
			t.Errorf("expected empty tenant for unknown key, got %q", tenantID)
		}
	})

	t.Run("Empty Key", func(t *testing.T) {
		tenantID, err := service.Verify("")
		if err != nil || tenantID != "" {
			t.Errorf("empty key must verify to nothing, got %q, %v", tenantID, err)
		}
	})

	t.Run("Empty Tenant", func(t *testing.T) {
		_, err := service.Issue("")
		wantCode(t, err, apperrors.CodeUnauthorized)
	})
}

func TestAPIKeyService_Revoke(t *testing.T) {
	db := setupTestDB(t)
	service := NewAPIKeyService(db, nil)

	t.Run("Revoked Key Stops Verifying", func(t *testing.T) {
		rawKey, err := service.Issue("tenant-a")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}

		if err := service.Revoke("tenant-a"); err != nil {
			t.Fatalf("failed to revoke key: %v", err)
		}

		tenantID, err := service.Verify(rawKey)
		if err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}
		if tenantID != "" {
			t.Error("revoked key must not verify")
		}

		key, err := service.GetByTenant("tenant-a")
		if err != nil {
			t.Fatalf("failed to get key metadata: %v", err)
		}
		if key == nil || !key.Revoked {
			t.Error("expected key record marked revoked")
		}
	})

	t.Run("Reissue After Revoke", func(t *testing.T) {
		rawKey, err := service.Issue("tenant-a")
		if err != nil {
			t.Fatalf("failed to reissue key: %v", err)
		}
		tenantID, err := service.Verify(rawKey)
		if err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}
		if tenantID != "tenant-a" {
			t.Error("reissue must clear the revoked flag")
		}
	})

	t.Run("Revoke Without Key", func(t *testing.T) {
		err := service.Revoke("tenant-none")
		wantCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("Missing Metadata", func(t *testing.T) {
		key, err := service.GetByTenant("tenant-none")
		if err != nil {
			t.Fatalf("missing key must not be an error: %v", err)
		}
		if key != nil {
			t.Error("expected nil metadata for tenant without a key")
		}
	})
}

func TestAPIKeyService_CachePurge(t *testing.T) {
	db := setupTestDB(t)
	service := NewAPIKeyService(db, nil)
	fake := newFakeCache()
	service.cache = fake

	oldDelay := replayPurgeDelay
	replayPurgeDelay = 50 * time.Millisecond
	defer func() { replayPurgeDelay = oldDelay }()

	ctx := context.Background()

	t.Run("Verify Populates Cache", func(t *testing.T) {
		rawKey, err := service.Issue("tenant-a")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		if _, err := service.Verify(rawKey); err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}
		if got, _ := fake.Get(ctx, hashKey(rawKey)); got != "tenant-a" {
			t.Errorf("expected cached tenant after verify, got %q", got)
		}
	})

	t.Run("Reissue Purges Old Digest", func(t *testing.T) {
		first, err := service.Issue("tenant-b")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		if _, err := service.Verify(first); err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}

		if _, err := service.Issue("tenant-b"); err != nil {
			t.Fatalf("failed to reissue key: %v", err)
		}
		if got, _ := fake.Get(ctx, hashKey(first)); got != "" {
			t.Errorf("replaced digest must be purged from cache, got %q", got)
		}
		if tenantID, _ := service.Verify(first); tenantID != "" {
			t.Error("replaced key must not verify through the cache")
		}
	})

	t.Run("Delayed Purge Clears Stale Repopulation", func(t *testing.T) {
		first, err := service.Issue("tenant-c")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		oldHash := hashKey(first)
		if _, err := service.Issue("tenant-c"); err != nil {
			t.Fatalf("failed to reissue key: %v", err)
		}

		// 模拟一个在替换提交前读到旧行的Verify，在首次清除之后回写旧摘要
		if err := fake.Set(ctx, oldHash, "tenant-c"); err != nil {
			t.Fatalf("failed to seed stale entry: %v", err)
		}

		time.Sleep(4 * replayPurgeDelay)

		if got, _ := fake.Get(ctx, oldHash); got != "" {
			t.Error("delayed purge must clear the stale repopulated entry")
		}
	})

	t.Run("Revoke Purges Cache", func(t *testing.T) {
		rawKey, err := service.Issue("tenant-d")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		if _, err := service.Verify(rawKey); err != nil {
			t.Fatalf("failed to verify key: %v", err)
		}
		if err := service.Revoke("tenant-d"); err != nil {
			t.Fatalf("failed to revoke key: %v", err)
		}
		if got, _ := fake.Get(ctx, hashKey(rawKey)); got != "" {
			t.Error("revoked digest must be purged from cache")
		}
	})
}
