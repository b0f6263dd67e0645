package upload

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/infrastructure/metrics"
	"learnhub/upload-broker/internal/infrastructure/observability"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

// MaxPartNumber is the highest part number the backend accepts.
const MaxPartNumber = 10000

// Storage is the object store the broker signs for and manages sessions on.
type Storage interface {
	PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*SignedURL, error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*SignedURL, error)
	CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) (string, error)
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	DeleteObject(ctx context.Context, key string) error
}

// Limiter is the admission-control gate.
type Limiter interface {
	Allow(ctx context.Context, rule Rule, fingerprint string) (bool, error)
}

// SessionLedger remembers open multipart sessions so stale ones can be aborted.
type SessionLedger interface {
	Record(ctx context.Context, record SessionRecord) error
	Forget(ctx context.Context, uploadID string) error
	ListStale(ctx context.Context, query StaleQuery) ([]SessionRecord, error)
}

// Service brokers direct-to-storage uploads.
type Service struct {
	cfg      *config.Config
	policies *PolicySet
	keys     *KeyGenerator
	storage  Storage
	limiter  Limiter
	ledger   SessionLedger
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(cfg *config.Config, policies *PolicySet, keys *KeyGenerator, storage Storage, limiter Limiter, ledger SessionLedger, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		policies: policies,
		keys:     keys,
		storage:  storage,
		limiter:  limiter,
		ledger:   ledger,
		log:      log.With().Str("component", "upload-service").Logger(),
		now:      time.Now,
	}
}

// Policies returns every surface policy.
func (s *Service) Policies() []Policy {
	return s.policies.All()
}

// CreateSimpleUpload validates intent and signs a single PUT for a fresh key.
func (s *Service) CreateSimpleUpload(ctx context.Context, caller *Caller, intent UploadIntent) (result *SimpleUpload, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.simple")
	defer func() { observability.EndSpan(span, err) }()
	defer func() { s.record(intent.Surface, ProtocolSimple, "sign", err) }()

	if err := s.authorize(ctx, caller, RuleSimpleUpload); err != nil {
		return nil, err
	}

	contentType, err := s.validate(ctx, intent, ProtocolSimple)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.Generate(intent.Surface, intent.FileName, contentType, intent.Folder)
	if err != nil {
		return nil, s.prepareError(ctx, err, "d3f5a7c9-1e2b-4d6f-8a0c-2e4a6c8e0f1b")
	}
	span.SetAttributes(attribute.String("upload.surface", string(intent.Surface)), attribute.String("upload.key", key))

	url, err := s.storage.PresignPut(ctx, key, contentType, intent.Size, s.cfg.SimpleURLTTL)
	if err != nil {
		return nil, s.prepareError(ctx, err, "e4a6c8e0-2f3b-4e7a-9b1d-3f5b7d9f1a2c")
	}

	metrics.RecordDeclaredBytes(string(intent.Surface), intent.Size)
	s.log.Debug().
		Str("caller", caller.ID).
		Str("surface", string(intent.Surface)).
		Str("key", key).
		Int64("size", intent.Size).
		Msg("signed simple upload")

	return &SimpleUpload{Key: key, URL: url}, nil
}

// InitiateMultipart validates intent and opens a multipart session at the backend.
func (s *Service) InitiateMultipart(ctx context.Context, caller *Caller, intent UploadIntent) (session *MultipartSession, err error) {
	if intent.Surface == "" {
		intent.Surface = SurfaceCourseAsset
	}

	ctx, span := observability.StartSpan(ctx, "upload.multipart.initiate")
	defer func() { observability.EndSpan(span, err) }()
	defer func() { s.record(intent.Surface, ProtocolMultipart, "initiate", err) }()

	if err := s.authorize(ctx, caller, RuleMultipartInitiate); err != nil {
		return nil, err
	}

	contentType, err := s.validate(ctx, intent, ProtocolMultipart)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.Generate(intent.Surface, intent.FileName, contentType, intent.Folder)
	if err != nil {
		return nil, s.prepareError(ctx, err, "f5b7d9f1-3a4c-4f8b-a2c4-4a6c8e0a2b3d")
	}
	span.SetAttributes(attribute.String("upload.surface", string(intent.Surface)), attribute.String("upload.key", key))

	uploadID, err := s.storage.CreateMultipartUpload(ctx, key, contentType)
	if err != nil {
		return nil, backendError(ctx, err, "could not start multipart upload")
	}
	if strings.TrimSpace(uploadID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			"storage backend returned no upload id", nil, "0a2c4e6a-4b5d-4a9c-b3d5-5b7d9f1b3c4e")
	}

	if err := s.ledger.Record(ctx, SessionRecord{UploadID: uploadID, Key: key, CreatedAt: s.now().UTC()}); err != nil {
		s.log.Warn().Err(err).Str("upload_id", uploadID).Str("key", key).Msg("failed to record multipart session")
	}

	metrics.RecordDeclaredBytes(string(intent.Surface), intent.Size)
	s.log.Info().
		Str("caller", caller.ID).
		Str("surface", string(intent.Surface)).
		Str("key", key).
		Str("upload_id", uploadID).
		Int64("size", intent.Size).
		Msg("multipart upload initiated")

	return &MultipartSession{UploadID: uploadID, Key: key, ContentType: contentType}, nil
}

// SignPart signs a PUT for one part of an open session. Parts may be signed
// repeatedly, in any order.
func (s *Service) SignPart(ctx context.Context, caller *Caller, req SignPartRequest) (url *SignedURL, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.multipart.sign_part")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.authorize(ctx, caller, RuleMultipartSignPart); err != nil {
		return nil, err
	}
	if err := validateSessionRef(ctx, req.UploadID, req.Key); err != nil {
		return nil, err
	}
	if req.PartNumber < 1 || req.PartNumber > MaxPartNumber {
		return nil, s.reject(ctx, ReasonPartNumberInvalid, "part number must be between 1 and 10000", "1b3d5f7b-5c6e-4b0d-8c4e-6c8e0a2c4d5f")
	}
	span.SetAttributes(attribute.String("upload.key", req.Key), attribute.Int("upload.part_number", int(req.PartNumber)))

	url, err = s.storage.PresignUploadPart(ctx, req.Key, req.UploadID, req.PartNumber, s.cfg.PartURLTTL)
	if err != nil {
		return nil, s.prepareError(ctx, err, "2c4e6a8c-6d7f-4c1e-9d5f-7d9f1b3d5e6a")
	}
	return url, nil
}

// CompleteMultipart asks the backend to assemble the listed parts into the final object.
func (s *Service) CompleteMultipart(ctx context.Context, caller *Caller, req CompleteRequest) (result *CompletedUpload, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.multipart.complete")
	defer func() { observability.EndSpan(span, err) }()
	surface, _ := SurfaceForKey(req.Key)
	defer func() { s.record(surface, ProtocolMultipart, "complete", err) }()

	if err := s.authorize(ctx, caller, RuleMultipartComplete); err != nil {
		return nil, err
	}
	if err := validateSessionRef(ctx, req.UploadID, req.Key); err != nil {
		return nil, err
	}
	parts, err := s.normalizeParts(ctx, req.Parts)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("upload.key", req.Key), attribute.Int("upload.parts", len(parts)))

	location, err := s.storage.CompleteMultipartUpload(ctx, req.Key, req.UploadID, parts)
	if err != nil {
		return nil, backendError(ctx, err, "could not complete multipart upload")
	}

	if err := s.ledger.Forget(ctx, req.UploadID); err != nil {
		s.log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("failed to forget completed session")
	}

	s.log.Info().
		Str("caller", caller.ID).
		Str("key", req.Key).
		Str("upload_id", req.UploadID).
		Int("parts", len(parts)).
		Msg("multipart upload completed")

	return &CompletedUpload{Key: req.Key, Location: location}, nil
}

// AbortMultipart discards a session. Backend failures are never returned:
// the caller always gets an acknowledgement and the outcome is logged.
func (s *Service) AbortMultipart(ctx context.Context, caller *Caller, req AbortRequest) (result *AbortResult, err error) {
	ctx, span := observability.StartSpan(ctx, "upload.multipart.abort")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.authorize(ctx, caller, RuleMultipartAbort); err != nil {
		return nil, err
	}
	if err := validateSessionRef(ctx, req.UploadID, req.Key); err != nil {
		return nil, err
	}

	outcome := s.abort(ctx, req.Key, req.UploadID, "client")
	span.SetAttributes(attribute.String("upload.key", req.Key), attribute.String("upload.abort_outcome", string(outcome)))

	return &AbortResult{Ack: true, Outcome: outcome}, nil
}

// abort discards the session at the backend and forgets it locally unless
// the backend failed, in which case the janitor retries later.
func (s *Service) abort(ctx context.Context, key, uploadID, source string) AbortOutcome {
	outcome := AbortDiscarded
	err := s.storage.AbortMultipartUpload(ctx, key, uploadID)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		outcome = AbortNotFound
	default:
		outcome = AbortFailed
	}

	metrics.RecordAbort(string(outcome), source)
	event := s.log.Info()
	if outcome == AbortFailed {
		event = s.log.Warn().Err(err)
	}
	event.Str("upload_id", uploadID).Str("key", key).Str("outcome", string(outcome)).Str("source", source).Msg("multipart upload aborted")

	if outcome != AbortFailed {
		if err := s.ledger.Forget(ctx, uploadID); err != nil {
			s.log.Warn().Err(err).Str("upload_id", uploadID).Msg("failed to forget aborted session")
		}
	}
	return outcome
}

// DeleteObject removes a broker-issued object. Only privileged callers may delete.
func (s *Service) DeleteObject(ctx context.Context, caller *Caller, key string) (err error) {
	ctx, span := observability.StartSpan(ctx, "upload.delete")
	defer func() { observability.EndSpan(span, err) }()

	if err := s.authorize(ctx, caller, RuleDelete); err != nil {
		return err
	}
	if !caller.HasAnyRole(s.cfg.DeleteRoles) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"caller is not allowed to delete objects", nil, "3d5f7b9d-7e8a-4d2f-ae6a-8e0a2c4e6f7b")
	}
	if _, ok := SurfaceForKey(key); !ok {
		return s.reject(ctx, ReasonKeyInvalid, "object key is not valid", "4e6a8c0e-8f9b-4e3a-bf7b-9f1b3d5f7a8c")
	}
	span.SetAttributes(attribute.String("upload.key", key))

	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return backendError(ctx, err, "could not delete object")
	}

	s.log.Info().Str("caller", caller.ID).Str("key", key).Msg("object deleted")
	return nil
}

// authorize runs the authentication and admission gates shared by every operation.
func (s *Service) authorize(ctx context.Context, caller *Caller, rule Rule) error {
	if caller == nil || strings.TrimSpace(caller.ID) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"authentication required", nil, "5f7b9d1f-9a0c-4f4b-8c8d-0a2c4e6a8b9d")
	}
	if s.limiter == nil {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, rule, caller.Fingerprint())
	if err != nil {
		metrics.RecordAdmissionError(string(rule))
		s.log.Warn().Err(err).Str("rule", string(rule)).Msg("admission check failed, admitting request")
		return nil
	}
	if !allowed {
		metrics.RecordAdmissionDenied(string(rule))
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeRateLimited,
			"too many requests, retry later", nil, "6a8c0e2a-0b1d-4a5c-9d9e-1b3d5f7b9c0e",
			map[string]any{"rule": string(rule)})
	}
	return nil
}

func (s *Service) validate(ctx context.Context, intent UploadIntent, protocol Protocol) (string, error) {
	contentType, err := s.policies.Validate(ctx, intent, protocol)
	if err != nil {
		if perr := platformerrors.GetPlatformError(err); perr != nil {
			metrics.RecordRejection(perr.Reason())
		}
		return "", err
	}
	return contentType, nil
}

func (s *Service) reject(ctx context.Context, reason, message, uuid string) error {
	metrics.RecordRejection(reason)
	return validationError(ctx, reason, message, uuid)
}

// normalizeParts checks the part list shape and returns it sorted by part number.
func (s *Service) normalizeParts(ctx context.Context, parts []Part) ([]Part, error) {
	if len(parts) == 0 {
		return nil, s.reject(ctx, ReasonPartsEmpty, "at least one part is required", "7b9d1f3b-1c2e-4b6d-aeaf-2c4e6a8c0d1f")
	}
	if len(parts) > MaxPartNumber {
		return nil, s.reject(ctx, ReasonPartNumberInvalid, "too many parts", "8c0e2a4c-2d3f-4c7e-bfb0-3d5f7b9d1e2a")
	}

	seen := make(map[int32]struct{}, len(parts))
	sorted := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.PartNumber < 1 || p.PartNumber > MaxPartNumber {
			return nil, s.reject(ctx, ReasonPartNumberInvalid, "part number must be between 1 and 10000", "9d1f3b5d-3e4a-4d8f-80c1-4e6a8c0e2f3b")
		}
		etag := strings.TrimSpace(p.ETag)
		if etag == "" {
			return nil, s.reject(ctx, ReasonETagMissing, "every part needs an etag", "0e2a4c6e-4f5b-4e9a-91d2-5f7b9d1f3a4c")
		}
		if _, dup := seen[p.PartNumber]; dup {
			return nil, s.reject(ctx, ReasonPartDuplicate, "part numbers must be unique", "1f3b5d7f-5a6c-4fab-a2e3-6a8c0e2a4b5d")
		}
		seen[p.PartNumber] = struct{}{}
		sorted = append(sorted, Part{PartNumber: p.PartNumber, ETag: etag})
	}

	slices.SortFunc(sorted, func(a, b Part) int { return int(a.PartNumber) - int(b.PartNumber) })
	return sorted, nil
}

func validateSessionRef(ctx context.Context, uploadID, key string) error {
	if strings.TrimSpace(uploadID) == "" {
		metrics.RecordRejection(ReasonUploadIDMissing)
		return validationError(ctx, ReasonUploadIDMissing, "upload id is required", "2a4c6e8a-6b7d-4abc-b3f4-7b9d1f3b5c6e")
	}
	if _, ok := SurfaceForKey(key); !ok {
		metrics.RecordRejection(ReasonKeyInvalid)
		return validationError(ctx, ReasonKeyInvalid, "object key is not valid", "3b5d7f9b-7c8e-4bcd-84a5-8c0e2a4c6d7f")
	}
	return nil
}

// prepareError hides signing and key generation failures behind a generic message.
func (s *Service) prepareError(ctx context.Context, err error, uuid string) error {
	if errors.Is(err, ErrBackendUnavailable) {
		return backendError(ctx, err, "storage backend unavailable")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
		"could not prepare upload", err, uuid)
}

func (s *Service) record(surface Surface, protocol Protocol, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
		if perr := platformerrors.GetPlatformError(err); perr != nil {
			status = strings.ToLower(string(perr.Type))
		}
	}
	label := string(surface)
	if surface.Namespace() == "" {
		label = "unknown"
	}
	metrics.RecordUpload(label, string(protocol), operation, status)
}
