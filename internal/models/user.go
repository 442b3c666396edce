package models

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(100)" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UploadedFile maps a corpus key (e.g. "posts") to the identifier the provider
// assigned to the uploaded document store.
type UploadedFile struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider   string    `gorm:"type:varchar(32);not null;uniqueIndex:uniq_uploaded_file_provider_key,priority:1" json:"provider"`
	Key        string    `gorm:"type:varchar(64);not null;uniqueIndex:uniq_uploaded_file_provider_key,priority:2" json:"key"`
	ProviderID string    `gorm:"type:varchar(255);not null" json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (UploadedFile) TableName() string { return "uploaded_files" }
