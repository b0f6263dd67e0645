package upload

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/upload-broker/internal/utils/platformerrors"
)

// multipartBackend keeps the backend's view of open sessions. Every transfer
// through a signed part URL stores a new ETag for that part, and completion
// only accepts the latest ETag of each part.
type multipartBackend struct {
	mu       sync.Mutex
	uploads  int
	etags    int
	sessions map[string]map[int32]string
	signed   map[string][]int32
}

func newMultipartBackend(storage *fakeStorage) *multipartBackend {
	b := &multipartBackend{
		sessions: make(map[string]map[int32]string),
		signed:   make(map[string][]int32),
	}

	storage.CreateFunc = func(context.Context, string, string) (string, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.uploads++
		uploadID := fmt.Sprintf("mpu-%d", b.uploads)
		b.sessions[uploadID] = make(map[int32]string)
		return uploadID, nil
	}
	storage.PresignUploadPartFunc = func(_ context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*SignedURL, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.signed[uploadID] = append(b.signed[uploadID], partNumber)
		return &SignedURL{
			URL:        fmt.Sprintf("https://storage.test/%s?uploadId=%s&partNumber=%d", key, uploadID, partNumber),
			Method:     "PUT",
			Key:        key,
			PartNumber: partNumber,
			ExpiresAt:  time.Now().Add(ttl),
		}, nil
	}
	storage.CompleteFunc = func(_ context.Context, key, uploadID string, parts []Part) (string, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		accepted, ok := b.sessions[uploadID]
		if !ok {
			return "", fmt.Errorf("%w: NoSuchUpload", ErrSessionNotFound)
		}
		for _, p := range parts {
			if accepted[p.PartNumber] != p.ETag {
				return "", fmt.Errorf("%w: InvalidPart %d", ErrPartMismatch, p.PartNumber)
			}
		}
		delete(b.sessions, uploadID)
		return "https://storage.test/" + key, nil
	}
	return b
}

// transfer stands in for the client sending bytes to a signed part URL.
func (b *multipartBackend) transfer(t *testing.T, uploadID string, signed *SignedURL) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	parts, ok := b.sessions[uploadID]
	require.True(t, ok, "no open session %s", uploadID)
	b.etags++
	etag := fmt.Sprintf(`"%d-%d"`, signed.PartNumber, b.etags)
	parts[signed.PartNumber] = etag
	return etag
}

func (b *multipartBackend) signedParts(uploadID string) []int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int32(nil), b.signed[uploadID]...)
}

func startLesson(t *testing.T, f *serviceFixture) *MultipartSession {
	t.Helper()
	session, err := f.svc.InitiateMultipart(context.Background(), instructor(), UploadIntent{
		FileName: "lesson-01.mp4", ContentType: "video/mp4", Size: 20 * 1024 * 1024,
	})
	require.NoError(t, err)
	return session
}

func signPart(t *testing.T, f *serviceFixture, session *MultipartSession, partNumber int32) *SignedURL {
	t.Helper()
	signed, err := f.svc.SignPart(context.Background(), instructor(), SignPartRequest{
		UploadID: session.UploadID, Key: session.Key, PartNumber: partNumber,
	})
	require.NoError(t, err)
	return signed
}

func TestMultipartRoundTrip(t *testing.T) {
	f := newFixture()
	backend := newMultipartBackend(f.storage)

	session := startLesson(t, f)
	require.Contains(t, f.ledger.records, session.UploadID)

	etagA := backend.transfer(t, session.UploadID, signPart(t, f, session, 1))
	etagB := backend.transfer(t, session.UploadID, signPart(t, f, session, 2))
	assert.Equal(t, []int32{1, 2}, backend.signedParts(session.UploadID))

	req := CompleteRequest{
		UploadID: session.UploadID,
		Key:      session.Key,
		Parts:    []Part{{PartNumber: 2, ETag: etagB}, {PartNumber: 1, ETag: etagA}},
	}
	done, err := f.svc.CompleteMultipart(context.Background(), instructor(), req)

	require.NoError(t, err)
	assert.Equal(t, session.Key, done.Key)
	assert.Equal(t, "https://storage.test/"+session.Key, done.Location)
	assert.NotContains(t, f.ledger.records, session.UploadID)

	_, err = f.svc.CompleteMultipart(context.Background(), instructor(), req)
	requireErrorType(t, err, platformerrors.ErrorTypeNotFound)
}

func TestMultipartCompleteUsesLatestETagOfResignedPart(t *testing.T) {
	f := newFixture()
	backend := newMultipartBackend(f.storage)

	session := startLesson(t, f)
	etagA := backend.transfer(t, session.UploadID, signPart(t, f, session, 1))
	stale := backend.transfer(t, session.UploadID, signPart(t, f, session, 2))

	retry := signPart(t, f, session, 2)
	latest := backend.transfer(t, session.UploadID, retry)
	require.NotEqual(t, stale, latest)
	assert.Equal(t, []int32{1, 2, 2}, backend.signedParts(session.UploadID))

	_, err := f.svc.CompleteMultipart(context.Background(), instructor(), CompleteRequest{
		UploadID: session.UploadID,
		Key:      session.Key,
		Parts:    []Part{{PartNumber: 1, ETag: etagA}, {PartNumber: 2, ETag: stale}},
	})
	perr := requireErrorType(t, err, platformerrors.ErrorTypeConflict)
	assert.True(t, perr.Retryable())
	assert.Contains(t, f.ledger.records, session.UploadID)

	done, err := f.svc.CompleteMultipart(context.Background(), instructor(), CompleteRequest{
		UploadID: session.UploadID,
		Key:      session.Key,
		Parts:    []Part{{PartNumber: 1, ETag: etagA}, {PartNumber: 2, ETag: latest}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/"+session.Key, done.Location)
	assert.NotContains(t, f.ledger.records, session.UploadID)
}
