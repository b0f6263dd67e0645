package entities

import "time"

// UploadSession is the ledger row of an open multipart upload.
type UploadSession struct {
	UploadID  string    `gorm:"column:upload_id;type:varchar(1024);primaryKey"`
	ObjectKey string    `gorm:"column:object_key;type:varchar(1024);not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (UploadSession) TableName() string {
	return "upload_broker.upload_sessions"
}
