package session

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/infrastructure/database/entities"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

// Repository is the postgres-backed multipart session ledger.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, record upload.SessionRecord) error {
	entity := entities.UploadSession{
		UploadID:  record.UploadID,
		ObjectKey: record.Key,
		CreatedAt: record.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to record upload session",
			err,
			"d1e3f5a7-b9c1-4d3e-85f7-a9b1c3d5e7f9",
		)
	}
	return nil
}

func (r *Repository) Forget(ctx context.Context, uploadID string) error {
	err := r.db.WithContext(ctx).Where("upload_id = ?", uploadID).Delete(&entities.UploadSession{}).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to forget upload session",
			err,
			"e2f4a6b8-c0d2-4e4f-96a8-b0c2d4e6f8a0",
		)
	}
	return nil
}

func (r *Repository) ListStale(ctx context.Context, query upload.StaleQuery) ([]upload.SessionRecord, error) {
	var rows []entities.UploadSession
	if err := staleQuery(r.db.WithContext(ctx), query).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list stale upload sessions",
			err,
			"f3a5b7c9-d1e3-4f5a-a7b9-c1d3e5f7a9b1",
		)
	}

	records := make([]upload.SessionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

func staleQuery(tx *gorm.DB, query upload.StaleQuery) *gorm.DB {
	tx = tx.Model(&entities.UploadSession{}).Where("created_at < ?", query.OlderThan)
	if query.After != nil {
		tx = tx.Where("(created_at, upload_id) > (?, ?)", query.After.CreatedAt, query.After.UploadID)
	}
	return tx.Order("created_at ASC, upload_id ASC").Limit(query.Limit)
}

func mapEntity(entity entities.UploadSession) upload.SessionRecord {
	return upload.SessionRecord{
		UploadID:  entity.UploadID,
		Key:       entity.ObjectKey,
		CreatedAt: entity.CreatedAt,
	}
}

// NoopLedger is used when no database is configured. Nothing is remembered,
// so the janitor has nothing to sweep.
type NoopLedger struct{}

func (NoopLedger) Record(context.Context, upload.SessionRecord) error { return nil }

func (NoopLedger) Forget(context.Context, string) error { return nil }

func (NoopLedger) ListStale(context.Context, upload.StaleQuery) ([]upload.SessionRecord, error) {
	return nil, nil
}
