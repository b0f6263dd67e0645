package upload

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
)

type fakeStorage struct {
	mu    sync.Mutex
	calls []string

	PresignPutFunc        func(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*SignedURL, error)
	PresignUploadPartFunc func(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*SignedURL, error)
	CreateFunc            func(ctx context.Context, key, contentType string) (string, error)
	CompleteFunc          func(ctx context.Context, key, uploadID string, parts []Part) (string, error)
	AbortFunc             func(ctx context.Context, key, uploadID string) error
	DeleteFunc            func(ctx context.Context, key string) error
}

func (f *fakeStorage) track(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeStorage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStorage) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*SignedURL, error) {
	f.track("PresignPut")
	if f.PresignPutFunc != nil {
		return f.PresignPutFunc(ctx, key, contentType, size, ttl)
	}
	return &SignedURL{
		URL:       "https://storage.test/" + key + "?X-Amz-Signature=abc",
		Method:    "PUT",
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

func (f *fakeStorage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*SignedURL, error) {
	f.track("PresignUploadPart")
	if f.PresignUploadPartFunc != nil {
		return f.PresignUploadPartFunc(ctx, key, uploadID, partNumber, ttl)
	}
	return &SignedURL{
		URL:        "https://storage.test/" + key + "?uploadId=" + uploadID,
		Method:     "PUT",
		Key:        key,
		PartNumber: partNumber,
		ExpiresAt:  time.Now().Add(ttl),
	}, nil
}

func (f *fakeStorage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	f.track("CreateMultipartUpload")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, key, contentType)
	}
	return "upload-1", nil
}

func (f *fakeStorage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) (string, error) {
	f.track("CompleteMultipartUpload")
	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, key, uploadID, parts)
	}
	return "https://storage.test/" + key, nil
}

func (f *fakeStorage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	f.track("AbortMultipartUpload")
	if f.AbortFunc != nil {
		return f.AbortFunc(ctx, key, uploadID)
	}
	return nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	f.track("DeleteObject")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, key)
	}
	return nil
}

type fakeLimiter struct {
	AllowFunc func(ctx context.Context, rule Rule, fingerprint string) (bool, error)
}

func (f *fakeLimiter) Allow(ctx context.Context, rule Rule, fingerprint string) (bool, error) {
	if f.AllowFunc != nil {
		return f.AllowFunc(ctx, rule, fingerprint)
	}
	return true, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	records   map[string]SessionRecord
	forgotten []string

	pages int

	ListStaleFunc func(ctx context.Context, query StaleQuery) ([]SessionRecord, error)
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]SessionRecord)}
}

func (f *fakeLedger) Record(_ context.Context, record SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.UploadID] = record
	return nil
}

func (f *fakeLedger) Forget(_ context.Context, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, uploadID)
	f.forgotten = append(f.forgotten, uploadID)
	return nil
}

// ListStale pages through the recorded entries in (CreatedAt, UploadID) order
// unless ListStaleFunc is set.
func (f *fakeLedger) ListStale(ctx context.Context, query StaleQuery) ([]SessionRecord, error) {
	if f.ListStaleFunc != nil {
		return f.ListStaleFunc(ctx, query)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages++

	var stale []SessionRecord
	for _, record := range f.records {
		if record.CreatedAt.Before(query.OlderThan) && (query.After == nil || sessionAfter(record, *query.After)) {
			stale = append(stale, record)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return sessionAfter(stale[j], stale[i]) })
	if len(stale) > query.Limit {
		stale = stale[:query.Limit]
	}
	return stale, nil
}

func sessionAfter(a, b SessionRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.UploadID > b.UploadID
}

func testConfig() *config.Config {
	return &config.Config{
		SimpleURLTTL:           10 * time.Minute,
		PartURLTTL:             time.Hour,
		AvatarMaxBytes:         5 * 1024 * 1024,
		ChatAttachmentMaxBytes: 10 * 1024 * 1024,
		CourseAssetMaxBytes:    4 * 1024 * 1024 * 1024,
		DeleteRoles:            []string{"admin", "instructor"},
		SessionMaxAge:          24 * time.Hour,
		JanitorBatchSize:       100,
	}
}

type serviceFixture struct {
	svc     *Service
	storage *fakeStorage
	limiter *fakeLimiter
	ledger  *fakeLedger
}

func newFixture() *serviceFixture {
	cfg := testConfig()
	f := &serviceFixture{
		storage: &fakeStorage{},
		limiter: &fakeLimiter{},
		ledger:  newFakeLedger(),
	}
	f.svc = NewService(cfg, NewPolicySet(cfg), NewKeyGenerator(), f.storage, f.limiter, f.ledger, zerolog.Nop())
	return f
}

func student() *Caller {
	return &Caller{ID: "user-42", Roles: []string{"student"}}
}

func instructor() *Caller {
	return &Caller{ID: "user-7", Roles: []string{"instructor"}}
}
