package model

import "time"

// KeyValueModel is the GORM model for the durable local key-value store.
// The offline operation queue persists its pending list here so queued
// changes survive process restarts.
type KeyValueModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for KeyValueModel
func (KeyValueModel) TableName() string {
	return "local_kv"
}
